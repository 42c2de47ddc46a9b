package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/pkg/logger"
)

// CleanupService removes lapsed seat holds and seats of deleted bookings
// from trips.
type CleanupService interface {
	// Cleanup scans every trip. removed lists booking ids whose seats must go
	// regardless of hold state; it may be empty.
	Cleanup(ctx context.Context, removed []string) (*models.CleanupReport, error)
	// ReleaseSeats applies the same filter to a single trip.
	ReleaseSeats(ctx context.Context, tripID string, removed []string) (bool, error)
}

type cleanupService struct {
	tx           interfaces.TxRunner
	tripRepo     interfaces.TripRepository
	availability AvailabilityService
	now          func() time.Time
	logger       *logger.Logger
}

func NewCleanupService(
	tx interfaces.TxRunner,
	tripRepo interfaces.TripRepository,
	availability AvailabilityService,
	logger *logger.Logger,
) CleanupService {
	return &cleanupService{
		tx:           tx,
		tripRepo:     tripRepo,
		availability: availability,
		now:          time.Now,
		logger:       logger,
	}
}

func (s *cleanupService) Cleanup(ctx context.Context, removed []string) (*models.CleanupReport, error) {
	report := &models.CleanupReport{StartedAt: s.now()}
	drop := idSet(removed)

	trips, err := s.tripRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	report.TripsScanned = len(trips)

	for _, trip := range trips {
		if len(filterSeats(trip.Passengers, drop, s.now())) == len(trip.Passengers) {
			continue
		}

		seatsRemoved, err := s.releaseSeats(ctx, trip.ID, drop)
		if err != nil {
			report.FinishedAt = s.now()
			return report, err
		}
		if seatsRemoved > 0 {
			report.TripsModified++
			report.SeatsRemoved += seatsRemoved
		}
	}

	report.FinishedAt = s.now()
	s.logger.LogSweepResult(string(models.SweepKindCleanup), map[string]interface{}{
		"trips_scanned":  report.TripsScanned,
		"trips_modified": report.TripsModified,
		"seats_removed":  report.SeatsRemoved,
		"removed_ids":    len(removed),
	})

	return report, nil
}

func (s *cleanupService) ReleaseSeats(ctx context.Context, tripID string, removed []string) (bool, error) {
	seatsRemoved, err := s.releaseSeats(ctx, tripID, idSet(removed))
	if err != nil {
		return false, err
	}
	return seatsRemoved > 0, nil
}

// releaseSeats re-reads the trip inside a transaction so a concurrent seat
// assignment is never overwritten.
func (s *cleanupService) releaseSeats(ctx context.Context, tripID string, drop map[string]struct{}) (int, error) {
	var trip *models.Trip
	seatsRemoved := 0

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		seatsRemoved = 0
		now := s.now()

		current, err := s.tripRepo.GetByID(txCtx, tripID)
		if err != nil {
			return err
		}

		kept := filterSeats(current.Passengers, drop, now)
		if len(kept) == len(current.Passengers) {
			return nil
		}

		seatsRemoved = len(current.Passengers) - len(kept)
		current.SetPassengers(kept, now)
		trip = current
		return s.tripRepo.UpdatePassengers(txCtx, current)
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to release seats on trip %s: %w", tripID, err)
	}

	if seatsRemoved > 0 {
		s.availability.Invalidate(ctx, trip.RouteKey, trip.Date)
		s.logger.LogTripEvent(tripID, "seats_released", map[string]interface{}{
			"removed": seatsRemoved,
			"is_full": trip.IsFull,
		})
	}

	return seatsRemoved, nil
}

func filterSeats(seats []models.SeatEntry, drop map[string]struct{}, now time.Time) []models.SeatEntry {
	kept := make([]models.SeatEntry, 0, len(seats))
	for _, seat := range seats {
		if _, ok := drop[seat.BookingID]; ok {
			continue
		}
		if !seat.IsActive(now) {
			continue
		}
		kept = append(kept, seat)
	}
	return kept
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
