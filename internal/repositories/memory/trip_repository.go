package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
)

type tripRepository struct {
	store *Store
}

func NewTripRepository(store *Store) interfaces.TripRepository {
	return &tripRepository{store: store}
}

func (r *tripRepository) Create(ctx context.Context, trip *models.Trip) error {
	defer r.store.lock(ctx)()

	if _, exists := r.store.trips[trip.ID]; exists {
		return fmt.Errorf("trip %s already exists: %w", trip.ID, interfaces.ErrConflict)
	}

	now := time.Now()
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = now
	}
	trip.UpdatedAt = now
	if trip.Passengers == nil {
		trip.Passengers = []models.SeatEntry{}
	}
	r.store.trips[trip.ID] = cloneTrip(*trip)
	r.store.wrote()
	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id string) (*models.Trip, error) {
	defer r.store.lock(ctx)()

	trip, ok := r.store.trips[id]
	if !ok {
		return nil, fmt.Errorf("trip %s: %w", id, interfaces.ErrNotFound)
	}
	clone := cloneTrip(trip)
	return &clone, nil
}

func (r *tripRepository) Delete(ctx context.Context, id string) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.trips[id]; ok {
		delete(r.store.trips, id)
		r.store.wrote()
	}
	return nil
}

func (r *tripRepository) UpdatePassengers(ctx context.Context, trip *models.Trip) error {
	defer r.store.lock(ctx)()

	stored, ok := r.store.trips[trip.ID]
	if !ok || stored.Version != trip.Version {
		return fmt.Errorf("trip %s changed concurrently: %w", trip.ID, interfaces.ErrConflict)
	}

	stored.Passengers = trip.Passengers
	stored.IsFull = trip.IsFull
	stored.Version++
	stored.UpdatedAt = time.Now()
	r.store.trips[trip.ID] = cloneTrip(stored)
	r.store.wrote()

	trip.Version = stored.Version
	trip.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *tripRepository) ListByRouteDate(ctx context.Context, routeKey, date string) ([]*models.Trip, error) {
	return r.find(ctx, func(t *models.Trip) bool {
		return t.RouteKey == routeKey && t.Date == date
	})
}

func (r *tripRepository) ListByDate(ctx context.Context, date string) ([]*models.Trip, error) {
	return r.find(ctx, func(t *models.Trip) bool {
		return t.Date == date
	})
}

func (r *tripRepository) ListUnderfilled(ctx context.Context, date string) ([]*models.Trip, error) {
	return r.find(ctx, func(t *models.Trip) bool {
		return t.Date == date && !t.IsFull
	})
}

func (r *tripRepository) ListAll(ctx context.Context) ([]*models.Trip, error) {
	return r.find(ctx, func(*models.Trip) bool { return true })
}

func (r *tripRepository) ListFrom(ctx context.Context, date string) ([]*models.Trip, error) {
	trips, err := r.find(ctx, func(t *models.Trip) bool {
		return t.Date >= date
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(trips, func(i, j int) bool {
		if trips[i].Date != trips[j].Date {
			return trips[i].Date < trips[j].Date
		}
		return trips[i].VehicleIndex < trips[j].VehicleIndex
	})
	return trips, nil
}

func (r *tripRepository) find(ctx context.Context, match func(t *models.Trip) bool) ([]*models.Trip, error) {
	defer r.store.lock(ctx)()

	trips := make([]*models.Trip, 0)
	for _, trip := range r.store.trips {
		if match(&trip) {
			clone := cloneTrip(trip)
			trips = append(trips, &clone)
		}
	}
	sort.Slice(trips, func(i, j int) bool {
		if trips[i].RouteKey != trips[j].RouteKey {
			return trips[i].RouteKey < trips[j].RouteKey
		}
		return trips[i].VehicleIndex < trips[j].VehicleIndex
	})
	return trips, nil
}
