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

// TripAssignmentService seats bookings on trips, opening a new vehicle
// when every existing trip for the route and date is full.
type TripAssignmentService interface {
	// Assign seats the booking and records the trip on it. Pending bookings
	// get a seat hold; any other status gets a permanent seat.
	Assign(ctx context.Context, booking *models.Booking) (string, error)
}

type tripAssignmentService struct {
	tx           interfaces.TxRunner
	tripRepo     interfaces.TripRepository
	bookingRepo  interfaces.BookingRepository
	capacity     RouteCapacityService
	confirmation TripConfirmationService
	availability AvailabilityService
	notifier     NotificationService
	holdDuration time.Duration
	now          func() time.Time
	logger       *logger.Logger
}

func NewTripAssignmentService(
	tx interfaces.TxRunner,
	tripRepo interfaces.TripRepository,
	bookingRepo interfaces.BookingRepository,
	capacity RouteCapacityService,
	confirmation TripConfirmationService,
	availability AvailabilityService,
	notifier NotificationService,
	holdDuration time.Duration,
	logger *logger.Logger,
) TripAssignmentService {
	if holdDuration <= 0 {
		holdDuration = models.DefaultHoldDuration
	}
	return &tripAssignmentService{
		tx:           tx,
		tripRepo:     tripRepo,
		bookingRepo:  bookingRepo,
		capacity:     capacity,
		confirmation: confirmation,
		availability: availability,
		notifier:     notifier,
		holdDuration: holdDuration,
		now:          time.Now,
		logger:       logger,
	}
}

func (s *tripAssignmentService) Assign(ctx context.Context, booking *models.Booking) (string, error) {
	tripID, status, err := s.reserveSeat(ctx, booking)
	if err != nil {
		if errors.Is(err, ErrBookingNotSeatable) || errors.Is(err, ErrBookingNotFound) {
			s.logger.WithError(err).WithBookingID(booking.ID).Warn("Booking no longer needs a seat")
			return "", &AssignmentError{BookingID: booking.ID, Reason: err}
		}

		s.logger.WithError(err).WithBookingID(booking.ID).WithFields(map[string]interface{}{
			"pickup":       booking.PickupLocation,
			"destination":  booking.Destination,
			"vehicle_type": booking.VehicleType,
			"date":         booking.IntendedDate,
		}).Error("Failed to assign booking to a trip")

		payload := bookingPayload(booking)
		payload["reason"] = err.Error()
		s.notifier.Dispatch(ctx, models.NotificationKindCapacityOverflowAlert, s.notifier.Operator(), payload)

		return "", &AssignmentError{BookingID: booking.ID, Reason: err}
	}
	booking.TripID = tripID
	booking.Status = status

	routeKey := utils.RouteKey(booking.PickupLocation, booking.Destination, booking.VehicleType)
	s.availability.Invalidate(ctx, routeKey, booking.IntendedDate)

	s.logger.LogBookingEvent(booking.ID, "seat_assigned", map[string]interface{}{
		"trip_id": tripID,
		"status":  status,
	})

	if _, err := s.confirmation.CheckAndConfirm(ctx, tripID); err != nil {
		s.logger.WithError(err).WithTripID(tripID).Warn("Trip confirmation check failed")
	}

	return tripID, nil
}

// reserveSeat runs the seat search, the seat write and the trip id write on
// the booking in one transaction so two concurrent requests can never
// overfill a trip and a booking cancelled meanwhile is never seated. The
// stored booking, not the caller's copy, decides whether the seat is held.
func (s *tripAssignmentService) reserveSeat(ctx context.Context, booking *models.Booking) (string, models.BookingStatus, error) {
	var tripID string
	var status models.BookingStatus

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		tripID, status = "", ""
		now := s.now()

		current, err := s.bookingRepo.GetByID(txCtx, booking.ID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if !current.Status.HoldsSeat() {
			return fmt.Errorf("%w: booking is %s", ErrBookingNotSeatable, current.Status)
		}

		capacity, err := s.capacity.Lookup(txCtx, current.Route())
		if err != nil {
			return err
		}

		seat := models.SeatEntry{
			BookingID: current.ID,
			Name:      current.FullName,
			Phone:     current.Phone,
		}
		if current.Status == models.BookingStatusPending {
			heldUntil := now.Add(s.holdDuration)
			seat.HeldUntil = &heldUntil
		}

		id, err := s.placeSeat(txCtx, current, capacity, seat, now)
		if err != nil {
			return err
		}
		if err := s.bookingRepo.SetTrip(txCtx, current.ID, id); err != nil {
			return err
		}

		tripID, status = id, current.Status
		return nil
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			return "", "", fmt.Errorf("seat reservation kept conflicting: %w", err)
		}
		return "", "", err
	}

	return tripID, status, nil
}

// placeSeat puts the seat on the first trip with room, opening the next
// vehicle while the route allows it.
func (s *tripAssignmentService) placeSeat(txCtx context.Context, booking *models.Booking, capacity *models.RouteCapacity, seat models.SeatEntry, now time.Time) (string, error) {
	trips, err := s.tripRepo.ListByRouteDate(txCtx, capacity.RouteKey, booking.IntendedDate)
	if err != nil {
		return "", err
	}

	maxIndex := 0
	for _, trip := range trips {
		if trip.VehicleIndex > maxIndex {
			maxIndex = trip.VehicleIndex
		}

		seats := withoutBooking(models.ActiveSeats(trip.Passengers, now), booking.ID)
		if len(seats) >= trip.Capacity {
			continue
		}

		trip.SetPassengers(append(seats, seat), now)
		if err := s.tripRepo.UpdatePassengers(txCtx, trip); err != nil {
			return "", err
		}
		return trip.ID, nil
	}

	if len(trips) >= capacity.VehicleCount {
		return "", ErrTripFull
	}

	index := maxIndex + 1
	trip := &models.Trip{
		ID:             models.TripID(capacity.RouteKey, booking.IntendedDate, index),
		RouteKey:       capacity.RouteKey,
		PickupLocation: booking.PickupLocation,
		Destination:    booking.Destination,
		VehicleType:    booking.VehicleType,
		Date:           booking.IntendedDate,
		VehicleIndex:   index,
		Capacity:       capacity.CapacityPerVehicle,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	trip.SetPassengers([]models.SeatEntry{seat}, now)
	if err := s.tripRepo.Create(txCtx, trip); err != nil {
		return "", err
	}
	return trip.ID, nil
}

func withoutBooking(seats []models.SeatEntry, bookingID string) []models.SeatEntry {
	kept := make([]models.SeatEntry, 0, len(seats))
	for _, seat := range seats {
		if seat.BookingID != bookingID {
			kept = append(kept, seat)
		}
	}
	return kept
}
