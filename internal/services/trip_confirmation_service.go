package services

import (
	"context"
	"errors"
	"fmt"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/pkg/logger"
)

// TripConfirmationService promotes a trip's Paid bookings to Confirmed once
// paid occupants reach the trip's capacity.
type TripConfirmationService interface {
	// CheckAndConfirm returns how many bookings it confirmed. Running it
	// again on an already confirmed trip writes nothing.
	CheckAndConfirm(ctx context.Context, tripID string) (int, error)
}

type tripConfirmationService struct {
	tripRepo    interfaces.TripRepository
	bookingRepo interfaces.BookingRepository
	notifier    NotificationService
	logger      *logger.Logger
}

func NewTripConfirmationService(
	tripRepo interfaces.TripRepository,
	bookingRepo interfaces.BookingRepository,
	notifier NotificationService,
	logger *logger.Logger,
) TripConfirmationService {
	return &tripConfirmationService{
		tripRepo:    tripRepo,
		bookingRepo: bookingRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

func (s *tripConfirmationService) CheckAndConfirm(ctx context.Context, tripID string) (int, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load trip %s: %w", tripID, err)
	}

	ids := trip.BookingIDs()
	if len(ids) == 0 {
		return 0, nil
	}

	bookings, err := s.bookingRepo.GetByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to load bookings for trip %s: %w", tripID, err)
	}

	paid := 0
	for _, b := range bookings {
		if b.Status.CountsTowardConfirmation() {
			paid++
		}
	}
	if paid < trip.Capacity {
		return 0, nil
	}

	confirmed := 0
	for _, b := range bookings {
		if b.Status != models.BookingStatusPaid {
			continue
		}

		ok, err := s.bookingRepo.TransitionStatus(ctx, b.ID,
			[]models.BookingStatus{models.BookingStatusPaid},
			models.BookingStatusConfirmed,
			&models.BookingStatusUpdate{ConfirmedDate: trip.Date},
		)
		if err != nil {
			return confirmed, fmt.Errorf("failed to confirm booking %s: %w", b.ID, err)
		}
		if !ok {
			continue
		}
		confirmed++

		b.Status = models.BookingStatusConfirmed
		b.ConfirmedDate = trip.Date
		s.notifier.Dispatch(ctx, models.NotificationKindBookingConfirmed, riderOf(b), bookingPayload(b))
	}

	if confirmed > 0 {
		s.logger.LogTripEvent(trip.ID, "trip_confirmed", map[string]interface{}{
			"confirmed": confirmed,
			"paid":      paid,
			"capacity":  trip.Capacity,
		})
	}

	return confirmed, nil
}
