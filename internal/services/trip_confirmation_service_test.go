package services

import (
	"fmt"
	"testing"

	"shuttle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markPaid(t *testing.T, f *fixture, id string) {
	t.Helper()
	ok, err := f.bookings.TransitionStatus(f.ctx, id,
		[]models.BookingStatus{models.BookingStatusPending},
		models.BookingStatusPaid,
		&models.BookingStatusUpdate{PaymentReference: "ref-" + id},
	)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckAndConfirm_WaitsForFullPaidTrip(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, testVehicle, 1, 5000)

	riders := make([]*models.Booking, 4)
	for i := range riders {
		riders[i] = f.assignNew(t, fmt.Sprintf("rider%d", i), models.BookingStatusPending)
	}
	tripID := models.TripID(testRouteKey, testDate, 1)

	for i := 0; i < 3; i++ {
		markPaid(t, f, riders[i].ID)
		confirmed, err := f.confirmation.CheckAndConfirm(f.ctx, tripID)
		require.NoError(t, err)
		assert.Zero(t, confirmed)
	}

	markPaid(t, f, riders[3].ID)
	confirmed, err := f.confirmation.CheckAndConfirm(f.ctx, tripID)
	require.NoError(t, err)
	assert.Equal(t, 4, confirmed)

	for _, r := range riders {
		got := f.getBooking(t, r.ID)
		assert.Equal(t, models.BookingStatusConfirmed, got.Status)
		assert.Equal(t, testDate, got.ConfirmedDate)
	}
	assert.Equal(t, 4, f.notifier.count(models.NotificationKindBookingConfirmed))
}

func TestCheckAndConfirm_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, testVehicle, 1, 5000)

	for i := 0; i < 4; i++ {
		f.assignNew(t, fmt.Sprintf("rider%d", i), models.BookingStatusPaid)
	}
	tripID := models.TripID(testRouteKey, testDate, 1)
	require.Equal(t, 4, f.notifier.count(models.NotificationKindBookingConfirmed))

	writes := f.store.Writes()
	confirmed, err := f.confirmation.CheckAndConfirm(f.ctx, tripID)
	require.NoError(t, err)

	assert.Zero(t, confirmed)
	assert.Equal(t, writes, f.store.Writes())
	assert.Equal(t, 4, f.notifier.count(models.NotificationKindBookingConfirmed))
}

func TestCheckAndConfirm_MixedConfirmedAndPaid(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, testVehicle, 1, 5000)

	riders := make([]*models.Booking, 4)
	for i := range riders {
		riders[i] = f.assignNew(t, fmt.Sprintf("rider%d", i), models.BookingStatusPending)
	}

	ok, err := f.bookings.TransitionStatus(f.ctx, riders[0].ID,
		[]models.BookingStatus{models.BookingStatusPending}, models.BookingStatusConfirmed, nil)
	require.NoError(t, err)
	require.True(t, ok)
	for _, r := range riders[1:] {
		markPaid(t, f, r.ID)
	}

	confirmed, err := f.confirmation.CheckAndConfirm(f.ctx, models.TripID(testRouteKey, testDate, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, confirmed)
}

func TestCheckAndConfirm_MissingTrip(t *testing.T) {
	f := newFixture(t)

	confirmed, err := f.confirmation.CheckAndConfirm(f.ctx, "no-such-trip")
	require.NoError(t, err)
	assert.Zero(t, confirmed)
}
