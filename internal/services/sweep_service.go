package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/utils"
	"shuttle/pkg/cache"
	"shuttle/pkg/logger"
	"shuttle/pkg/storage"

	"github.com/google/uuid"
)

// SweepService runs the maintenance sweeps under a distributed lock and
// archives their reports.
type SweepService interface {
	RunCleanup(ctx context.Context) (*models.CleanupReport, error)
	RunReschedule(ctx context.Context) (*models.RescheduleReport, error)
	ListReports(ctx context.Context, kind models.SweepKind) ([]*storage.FileInfo, error)
	GetReport(ctx context.Context, key string) ([]byte, error)
}

type sweepService struct {
	cleanup    CleanupService
	reschedule RescheduleService
	locks      cache.Cache
	archive    storage.StorageProvider
	prefix     string
	lockTTL    time.Duration
	now        func() time.Time
	logger     *logger.Logger
}

// NewSweepService accepts a nil lock cache (no cross-process exclusion) and
// a nil archive (reports are only logged).
func NewSweepService(
	cleanup CleanupService,
	reschedule RescheduleService,
	locks cache.Cache,
	archive storage.StorageProvider,
	prefix string,
	logger *logger.Logger,
) SweepService {
	return &sweepService{
		cleanup:    cleanup,
		reschedule: reschedule,
		locks:      locks,
		archive:    archive,
		prefix:     prefix,
		lockTTL:    utils.SweepLockTTL,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *sweepService) RunCleanup(ctx context.Context) (*models.CleanupReport, error) {
	var report *models.CleanupReport
	err := s.withLock(ctx, models.SweepKindCleanup, func() error {
		var err error
		report, err = s.cleanup.Cleanup(ctx, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.store(ctx, models.SweepKindCleanup, report.StartedAt, report)
	return report, nil
}

func (s *sweepService) RunReschedule(ctx context.Context) (*models.RescheduleReport, error) {
	var report *models.RescheduleReport
	err := s.withLock(ctx, models.SweepKindReschedule, func() error {
		var err error
		report, err = s.reschedule.Reschedule(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.store(ctx, models.SweepKindReschedule, report.StartedAt, report)
	return report, nil
}

func (s *sweepService) withLock(ctx context.Context, kind models.SweepKind, fn func() error) error {
	if s.locks == nil {
		return fn()
	}

	key := utils.CacheKeySweepLock + string(kind)
	token := uuid.NewString()

	acquired, err := s.locks.SetNX(ctx, key, token, s.lockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire %s sweep lock: %w", kind, err)
	}
	if !acquired {
		s.logger.WithField("kind", kind).Warn("Sweep already running elsewhere")
		return ErrSweepInProgress
	}

	defer func() {
		if _, err := s.locks.CompareAndDelete(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.WithError(err).WithField("kind", kind).Warn("Failed to release sweep lock")
		}
	}()

	return fn()
}

func (s *sweepService) store(ctx context.Context, kind models.SweepKind, startedAt time.Time, report interface{}) {
	if s.archive == nil {
		return
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		s.logger.WithError(err).WithField("kind", kind).Error("Failed to encode sweep report")
		return
	}

	key := path.Join(s.prefix, string(kind), startedAt.UTC().Format("2006-01-02T150405Z")+".json")
	_, err = s.archive.Upload(ctx, &storage.UploadRequest{
		Key:         key,
		Reader:      bytes.NewReader(data),
		ContentType: "application/json",
		Size:        int64(len(data)),
		Metadata:    map[string]string{"kind": string(kind)},
	})
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to archive sweep report")
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"kind": kind,
		"key":  key,
	}).Info("Sweep report archived")
}

func (s *sweepService) ListReports(ctx context.Context, kind models.SweepKind) ([]*storage.FileInfo, error) {
	if s.archive == nil {
		return []*storage.FileInfo{}, nil
	}

	prefix := path.Join(s.prefix, string(kind)) + "/"
	files, err := s.archive.ListFiles(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweep reports: %w", err)
	}
	return files, nil
}

func (s *sweepService) GetReport(ctx context.Context, key string) ([]byte, error) {
	if s.archive == nil {
		return nil, ErrNotFound
	}

	resp, err := s.archive.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("report %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download sweep report: %w", err)
	}
	defer resp.Reader.Close()

	data, err := io.ReadAll(resp.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read sweep report: %w", err)
	}
	return data, nil
}
