package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/internal/utils"
)

// TripService is the read side of trips for the admin dashboard.
type TripService interface {
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)
	ListByDate(ctx context.Context, date string) ([]*models.Trip, error)
	// Summary counts trips from today on and the bookings awaiting action,
	// alongside the latest few trips and bookings.
	Summary(ctx context.Context) (*models.DashboardSummary, error)
}

// summaryRecentLimit caps the recent trips and bookings in a summary.
const summaryRecentLimit = 5

type tripService struct {
	tripRepo    interfaces.TripRepository
	bookingRepo interfaces.BookingRepository
	location    *time.Location
	now         func() time.Time
}

// NewTripService reads "today" in location, UTC when nil.
func NewTripService(tripRepo interfaces.TripRepository, bookingRepo interfaces.BookingRepository, location *time.Location) TripService {
	if location == nil {
		location = time.UTC
	}
	return &tripService{
		tripRepo:    tripRepo,
		bookingRepo: bookingRepo,
		location:    location,
		now:         time.Now,
	}
}

func (s *tripService) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

func (s *tripService) ListByDate(ctx context.Context, date string) ([]*models.Trip, error) {
	if !utils.IsValidDate(date) {
		return nil, ErrInvalidDate
	}

	trips, err := s.tripRepo.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

func (s *tripService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	now := s.now()
	_, today := utils.YesterdayAndToday(now, s.location)

	upcoming, err := s.tripRepo.ListFrom(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming trips: %w", err)
	}

	summary := &models.DashboardSummary{
		UpcomingTrips: len(upcoming),
		RecentTrips:   upcoming,
	}
	for _, trip := range upcoming {
		summary.UpcomingPassengers += trip.ActiveCount(now)
	}
	if len(upcoming) > summaryRecentLimit {
		summary.RecentTrips = upcoming[:summaryRecentLimit]
	}

	countParams := &utils.PaginationParams{Page: 1, PageSize: 1, Sort: "created_at", Order: "desc"}
	if _, summary.PendingBookings, err = s.bookingRepo.List(ctx, &models.BookingFilter{Status: models.BookingStatusPending}, countParams); err != nil {
		return nil, fmt.Errorf("failed to count pending bookings: %w", err)
	}
	if _, summary.ConfirmedBookings, err = s.bookingRepo.List(ctx, &models.BookingFilter{Status: models.BookingStatusConfirmed}, countParams); err != nil {
		return nil, fmt.Errorf("failed to count confirmed bookings: %w", err)
	}

	summary.RecentBookings, _, err = s.bookingRepo.List(ctx, nil,
		&utils.PaginationParams{Page: 1, PageSize: summaryRecentLimit, Sort: "created_at", Order: "desc"})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent bookings: %w", err)
	}

	return summary, nil
}
