package app

import (
	"context"
	"errors"
	"fmt"

	"shuttle/internal/config"
	"shuttle/internal/services"
	"shuttle/pkg/logger"

	"github.com/go-co-op/gocron/v2"
)

const (
	JobReschedule = "reschedule"
	JobCleanup    = "cleanup"
)

// RunJob runs one sweep and logs its report.
func RunJob(ctx context.Context, sweeps services.SweepService, job string, log *logger.Logger) error {
	switch job {
	case JobReschedule:
		report, err := sweeps.RunReschedule(ctx)
		if err != nil {
			return err
		}
		log.LogSweepResult(job, map[string]interface{}{
			"from_date": report.FromDate,
			"to_date":   report.ToDate,
			"migrated":  report.Migrated,
			"skipped":   report.Skipped,
			"escalated": report.Escalated,
			"failed":    report.Failed,
			"deleted":   report.TripsDeleted,
		})
	case JobCleanup:
		report, err := sweeps.RunCleanup(ctx)
		if err != nil {
			return err
		}
		log.LogSweepResult(job, map[string]interface{}{
			"trips_scanned":  report.TripsScanned,
			"trips_modified": report.TripsModified,
			"seats_removed":  report.SeatsRemoved,
		})
	default:
		return fmt.Errorf("unknown job %q", job)
	}
	return nil
}

// NewScheduler registers the nightly reschedule on the sweep cron and the
// cleanup on a fixed interval. The caller starts and shuts it down.
func NewScheduler(ctx context.Context, sweeps services.SweepService, cfg *config.BookingConfig, log *logger.Logger) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(cfg.Location()))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	run := func(job string) func() {
		return func() {
			if err := RunJob(ctx, sweeps, job, log); err != nil {
				entry := log.WithError(err).WithField("job", job)
				if errors.Is(err, services.ErrSweepInProgress) {
					entry.Warn("Sweep skipped")
					return
				}
				entry.Error("Sweep failed")
			}
		}
	}

	if _, err := scheduler.NewJob(
		gocron.CronJob(cfg.SweepCron, false),
		gocron.NewTask(run(JobReschedule)),
		gocron.WithName(JobReschedule),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("failed to schedule reschedule sweep: %w", err)
	}

	if _, err := scheduler.NewJob(
		gocron.DurationJob(cfg.CleanupInterval),
		gocron.NewTask(run(JobCleanup)),
		gocron.WithName(JobCleanup),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("failed to schedule cleanup sweep: %w", err)
	}

	return scheduler, nil
}
