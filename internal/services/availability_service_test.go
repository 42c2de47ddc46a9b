package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/pkg/cache"
	"shuttle/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ttlCache records the expiry each Set asked for.
type ttlCache struct {
	*cache.MemoryCache
	mu   sync.Mutex
	ttls []time.Duration
}

func (c *ttlCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	c.ttls = append(c.ttls, expiration)
	c.mu.Unlock()
	return c.MemoryCache.Set(ctx, key, value, expiration)
}

// assignDuringList seats another rider once, after the first listing has
// been read and before the caller caches what it counted.
type assignDuringList struct {
	interfaces.TripRepository
	assign func()
	once   sync.Once
}

func (r *assignDuringList) ListByRouteDate(ctx context.Context, routeKey, date string) ([]*models.Trip, error) {
	trips, err := r.TripRepository.ListByRouteDate(ctx, routeKey, date)
	r.once.Do(r.assign)
	return trips, err
}

var testRoute = models.Route{PickupLocation: testPickup, Destination: testDestination, VehicleType: testVehicle}

func TestGetAvailability_CountsActiveSeats(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, testVehicle, 2, 5000)

	now := f.clock.Now()
	seedTrip(t, f, testDate, 1, paidSeat("a"), heldSeat("b", now.Add(time.Minute)), heldSeat("c", now.Add(-time.Minute)))

	availability, err := f.availability.GetAvailability(f.ctx, testRoute, testDate)
	require.NoError(t, err)

	assert.Equal(t, 8, availability.TotalCapacity)
	assert.Equal(t, 6, availability.AvailableSeats)
	assert.False(t, availability.IsFull)
}

func TestGetAvailability_InvalidatedOnAssignment(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, testVehicle, 1, 5000)

	before, err := f.availability.GetAvailability(f.ctx, testRoute, testDate)
	require.NoError(t, err)
	assert.Equal(t, 4, before.AvailableSeats)

	for i := 0; i < 4; i++ {
		f.assignNew(t, fmt.Sprintf("rider%d", i), models.BookingStatusPaid)
	}

	after, err := f.availability.GetAvailability(f.ctx, testRoute, testDate)
	require.NoError(t, err)
	assert.Zero(t, after.AvailableSeats)
	assert.True(t, after.IsFull)
}

func TestGetAvailability_ServesCachedSummary(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, testVehicle, 1, 5000)

	_, err := f.availability.GetAvailability(f.ctx, testRoute, testDate)
	require.NoError(t, err)

	seedTrip(t, f, testDate, 1, paidSeat("a"))

	cached, err := f.availability.GetAvailability(f.ctx, testRoute, testDate)
	require.NoError(t, err)
	assert.Equal(t, 4, cached.AvailableSeats)

	f.availability.Invalidate(f.ctx, testRouteKey, testDate)

	fresh, err := f.availability.GetAvailability(f.ctx, testRoute, testDate)
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.AvailableSeats)
}

func TestGetAvailability_TTLCappedByEarliestHold(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, testVehicle, 1, 5000)

	spy := &ttlCache{MemoryCache: cache.NewMemoryCache()}
	svc := NewAvailabilityService(f.trips, f.capacity, spy, 30*time.Second, logger.NewNop()).(*availabilityService)
	svc.now = f.clock.Now

	now := f.clock.Now()
	seedTrip(t, f, testDate, 1, heldSeat("a", now.Add(10*time.Second)), heldSeat("b", now.Add(time.Minute)))

	_, err := svc.GetAvailability(f.ctx, testRoute, testDate)
	require.NoError(t, err)

	require.Len(t, spy.ttls, 1)
	assert.Equal(t, 10*time.Second, spy.ttls[0])
}

func TestGetAvailability_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.availability.GetAvailability(f.ctx, testRoute, "2026/03/10")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.availability.GetAvailability(f.ctx, testRoute, testDate)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestGetAvailability_SummaryReadBeforeAssignmentIsNotServed(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, testVehicle, 1, 5000)
	for i := 0; i < 3; i++ {
		f.assignNew(t, fmt.Sprintf("rider%d", i), models.BookingStatusPaid)
	}

	trips := &assignDuringList{TripRepository: f.trips}
	trips.assign = func() { f.assignNew(t, "last", models.BookingStatusPaid) }
	svc := NewAvailabilityService(trips, f.capacity, f.cache, 30*time.Second, logger.NewNop()).(*availabilityService)
	svc.now = f.clock.Now

	first, err := svc.GetAvailability(f.ctx, testRoute, testDate)
	require.NoError(t, err)
	assert.Equal(t, 1, first.AvailableSeats)

	second, err := svc.GetAvailability(f.ctx, testRoute, testDate)
	require.NoError(t, err)
	assert.Zero(t, second.AvailableSeats)
	assert.True(t, second.IsFull)
}

func TestGetAvailability_ReportsOverbookingAfterCapacityCut(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, testVehicle, 2, 5000)
	for i := 0; i < 8; i++ {
		f.assignNew(t, fmt.Sprintf("rider%d", i), models.BookingStatusPaid)
	}

	f.seedRule(t, testVehicle, 1, 5000)
	f.availability.Invalidate(f.ctx, testRouteKey, testDate)

	availability, err := f.availability.GetAvailability(f.ctx, testRoute, testDate)
	require.NoError(t, err)
	assert.Equal(t, 4, availability.TotalCapacity)
	assert.Equal(t, -4, availability.AvailableSeats)
	assert.True(t, availability.IsFull)
}
