package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/internal/repositories/memory"

	"github.com/stretchr/testify/suite"
)

type TripServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	trips    interfaces.TripRepository
	bookings interfaces.BookingRepository
	svc      TripService
}

func (s *TripServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	store := memory.NewStore()
	s.trips = memory.NewTripRepository(store)
	s.bookings = memory.NewBookingRepository(store)
	s.svc = NewTripService(s.trips, s.bookings, time.UTC)
	SetClock(func() time.Time { return s.now }, s.svc)

	for _, trip := range []*models.Trip{
		{ID: models.TripID(testRouteKey, testDate, 2), RouteKey: testRouteKey, Date: testDate, VehicleIndex: 2, Capacity: 4},
		{ID: models.TripID(testRouteKey, testDate, 1), RouteKey: testRouteKey, Date: testDate, VehicleIndex: 1, Capacity: 4},
		{ID: models.TripID(testRouteKey, "2026-03-11", 1), RouteKey: testRouteKey, Date: "2026-03-11", VehicleIndex: 1, Capacity: 4},
	} {
		s.Require().NoError(s.trips.Create(s.ctx, trip))
	}
}

func (s *TripServiceSuite) TestGetTrip() {
	trip, err := s.svc.GetTrip(s.ctx, models.TripID(testRouteKey, testDate, 1))
	s.Require().NoError(err)
	s.Equal(1, trip.VehicleIndex)

	_, err = s.svc.GetTrip(s.ctx, "missing")
	s.ErrorIs(err, ErrTripNotFound)
	s.ErrorIs(err, ErrNotFound)
}

func (s *TripServiceSuite) TestListByDateOrdersByVehicle() {
	trips, err := s.svc.ListByDate(s.ctx, testDate)
	s.Require().NoError(err)
	s.Require().Len(trips, 2)
	s.Equal(1, trips[0].VehicleIndex)
	s.Equal(2, trips[1].VehicleIndex)

	trips, err = s.svc.ListByDate(s.ctx, "2026-03-12")
	s.Require().NoError(err)
	s.Empty(trips)
}

func (s *TripServiceSuite) TestListByDateRejectsBadDate() {
	_, err := s.svc.ListByDate(s.ctx, "10/03/2026")
	s.ErrorIs(err, ErrInvalidDate)
	s.ErrorIs(err, ErrValidation)
}

func (s *TripServiceSuite) TestSummary() {
	lapsed := s.now.Add(-time.Minute)
	held := s.now.Add(time.Minute)

	yesterday := &models.Trip{ID: models.TripID(testRouteKey, "2026-03-09", 1), RouteKey: testRouteKey, Date: "2026-03-09", VehicleIndex: 1, Capacity: 4}
	yesterday.SetPassengers([]models.SeatEntry{{BookingID: "old"}}, s.now)
	s.Require().NoError(s.trips.Create(s.ctx, yesterday))

	today, err := s.trips.GetByID(s.ctx, models.TripID(testRouteKey, testDate, 1))
	s.Require().NoError(err)
	today.SetPassengers([]models.SeatEntry{
		{BookingID: "paid"},
		{BookingID: "held", HeldUntil: &held},
		{BookingID: "lapsed", HeldUntil: &lapsed},
	}, s.now)
	s.Require().NoError(s.trips.UpdatePassengers(s.ctx, today))

	for day := 12; day <= 14; day++ {
		date := fmt.Sprintf("2026-03-%d", day)
		s.Require().NoError(s.trips.Create(s.ctx, &models.Trip{
			ID: models.TripID(testRouteKey, date, 1), RouteKey: testRouteKey, Date: date, VehicleIndex: 1, Capacity: 4,
		}))
	}

	statuses := []models.BookingStatus{
		models.BookingStatusPending, models.BookingStatusPending, models.BookingStatusPaid,
		models.BookingStatusConfirmed, models.BookingStatusCancelled, models.BookingStatusPending,
	}
	for i, status := range statuses {
		s.Require().NoError(s.bookings.Create(s.ctx, &models.Booking{
			ID:        fmt.Sprintf("b%d", i),
			Status:    status,
			CreatedAt: s.now.Add(time.Duration(i) * time.Minute),
		}))
	}

	summary, err := s.svc.Summary(s.ctx)
	s.Require().NoError(err)

	s.Equal(6, summary.UpcomingTrips)
	s.Equal(2, summary.UpcomingPassengers)
	s.Equal(int64(3), summary.PendingBookings)
	s.Equal(int64(1), summary.ConfirmedBookings)

	s.Require().Len(summary.RecentTrips, 5)
	s.Equal(testDate, summary.RecentTrips[0].Date)
	s.Equal(1, summary.RecentTrips[0].VehicleIndex)
	s.Equal(2, summary.RecentTrips[1].VehicleIndex)
	s.Equal("2026-03-13", summary.RecentTrips[4].Date)

	s.Require().Len(summary.RecentBookings, 5)
	s.Equal("b5", summary.RecentBookings[0].ID)
	s.Equal("b1", summary.RecentBookings[4].ID)
}

func (s *TripServiceSuite) TestSummaryOnEmptyStore() {
	svc := NewTripService(memory.NewTripRepository(memory.NewStore()), memory.NewBookingRepository(memory.NewStore()), nil)

	summary, err := svc.Summary(s.ctx)
	s.Require().NoError(err)
	s.Zero(summary.UpcomingTrips)
	s.Zero(summary.PendingBookings)
	s.Empty(summary.RecentTrips)
	s.Empty(summary.RecentBookings)
}

func TestTripServiceSuite(t *testing.T) {
	suite.Run(t, new(TripServiceSuite))
}
