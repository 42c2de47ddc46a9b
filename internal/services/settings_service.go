package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/internal/utils"
	"shuttle/pkg/logger"
)

// SettingsService reads and updates the runtime intake switches. Reads
// fall back to deploy-time defaults until an admin saves a document.
type SettingsService interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, request *UpdateSettingsRequest) (*models.Settings, error)
}

type UpdateSettingsRequest struct {
	PaymentEnabled     *bool   `json:"payment_enabled"`
	BookingWindowStart *string `json:"booking_window_start"`
	BookingWindowEnd   *string `json:"booking_window_end"`
}

type settingsService struct {
	repo     interfaces.SettingsRepository
	defaults models.Settings
	now      func() time.Time
	logger   *logger.Logger
}

func NewSettingsService(repo interfaces.SettingsRepository, defaults models.Settings, logger *logger.Logger) SettingsService {
	defaults.ID = models.GlobalSettingsID
	return &settingsService{
		repo:     repo,
		defaults: defaults,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *settingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			defaults := s.defaults
			return &defaults, nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, request *UpdateSettingsRequest) (*models.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if request.PaymentEnabled != nil {
		settings.PaymentEnabled = *request.PaymentEnabled
	}
	if request.BookingWindowStart != nil {
		settings.BookingWindowStart = *request.BookingWindowStart
	}
	if request.BookingWindowEnd != nil {
		settings.BookingWindowEnd = *request.BookingWindowEnd
	}

	for _, date := range []string{settings.BookingWindowStart, settings.BookingWindowEnd} {
		if date != "" && !utils.IsValidDate(date) {
			return nil, ErrInvalidDate
		}
	}
	if settings.BookingWindowStart != "" && settings.BookingWindowEnd != "" &&
		settings.BookingWindowStart > settings.BookingWindowEnd {
		return nil, fmt.Errorf("%w: booking window starts after it ends", ErrValidation)
	}

	settings.ID = models.GlobalSettingsID
	settings.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"payment_enabled":      settings.PaymentEnabled,
		"booking_window_start": settings.BookingWindowStart,
		"booking_window_end":   settings.BookingWindowEnd,
	}).Info("Settings updated")

	return settings, nil
}
