package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/internal/utils"
	"shuttle/pkg/cache"
	"shuttle/pkg/logger"
)

// AvailabilityService reports remaining seats for a route and date.
type AvailabilityService interface {
	GetAvailability(ctx context.Context, route models.Route, date string) (*models.Availability, error)
	// Invalidate drops the cached summary after a seat mutation.
	Invalidate(ctx context.Context, routeKey, date string)
}

type availabilityService struct {
	tripRepo interfaces.TripRepository
	capacity RouteCapacityService
	cache    cache.Cache
	ttl      time.Duration
	now      func() time.Time
	logger   *logger.Logger
}

// NewAvailabilityService accepts a nil cache, in which case every call reads
// the trips.
func NewAvailabilityService(
	tripRepo interfaces.TripRepository,
	capacity RouteCapacityService,
	c cache.Cache,
	ttl time.Duration,
	logger *logger.Logger,
) AvailabilityService {
	return &availabilityService{
		tripRepo: tripRepo,
		capacity: capacity,
		cache:    c,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Summaries are keyed by a per route and date generation. Invalidate bumps
// the generation, so a summary computed from trips read before a seat
// mutation lands under a key nobody reads again.
func availabilityGenKey(routeKey, date string) string {
	return utils.CacheKeyAvailGen + routeKey + ":" + date
}

func availabilityKey(routeKey, date string, gen int64) string {
	return fmt.Sprintf("%s%s:%s:%d", utils.CacheKeyAvailability, routeKey, date, gen)
}

// generation returns the current generation, zero when none was recorded.
func (s *availabilityService) generation(ctx context.Context, routeKey, date string) (int64, error) {
	var gen int64
	err := s.cache.Get(ctx, availabilityGenKey(routeKey, date), &gen)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		return 0, err
	}
	return gen, nil
}

func (s *availabilityService) GetAvailability(ctx context.Context, route models.Route, date string) (*models.Availability, error) {
	if !utils.IsValidDate(date) {
		return nil, ErrInvalidDate
	}

	capacity, err := s.capacity.Lookup(ctx, route)
	if err != nil {
		return nil, err
	}

	cacheable := s.cache != nil
	var key string
	if cacheable {
		gen, err := s.generation(ctx, capacity.RouteKey, date)
		if err != nil {
			s.logger.WithError(err).WithField("route_key", capacity.RouteKey).Warn("Availability generation read failed")
			cacheable = false
		}
		key = availabilityKey(capacity.RouteKey, date, gen)
	}
	if cacheable {
		var cached models.Availability
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).WithField("key", key).Warn("Availability cache read failed")
		}
	}

	trips, err := s.tripRepo.ListByRouteDate(ctx, capacity.RouteKey, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}

	now := s.now()
	occupied := 0
	var nextExpiry *time.Time
	for _, trip := range trips {
		for _, seat := range trip.Passengers {
			if !seat.IsActive(now) {
				continue
			}
			occupied++
			if seat.HeldUntil != nil && (nextExpiry == nil || seat.HeldUntil.Before(*nextExpiry)) {
				nextExpiry = seat.HeldUntil
			}
		}
	}

	// Shrinking a route below its booked seats leaves this negative.
	total := capacity.TotalCapacity()
	available := total - occupied
	availability := &models.Availability{
		AvailableSeats: available,
		TotalCapacity:  total,
		IsFull:         available <= 0,
	}

	if cacheable {
		// A cached summary must not outlive the earliest hold it counts.
		ttl := s.ttl
		if nextExpiry != nil {
			if untilExpiry := nextExpiry.Sub(now); untilExpiry < ttl {
				ttl = untilExpiry
			}
		}
		if ttl > 0 {
			if err := s.cache.Set(ctx, key, availability, ttl); err != nil {
				s.logger.WithError(err).WithField("key", key).Warn("Availability cache write failed")
			}
		}
	}

	return availability, nil
}

func (s *availabilityService) Invalidate(ctx context.Context, routeKey, date string) {
	if s.cache == nil {
		return
	}
	key := availabilityGenKey(routeKey, date)
	if _, err := s.cache.Incr(ctx, key, utils.AvailabilityGenTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Availability cache invalidation failed")
	}
}
