package interfaces

import (
	"context"

	"shuttle/internal/models"
)

type TripRepository interface {
	// Create inserts a new trip. An existing id yields ErrConflict.
	Create(ctx context.Context, trip *models.Trip) error
	GetByID(ctx context.Context, id string) (*models.Trip, error)
	Delete(ctx context.Context, id string) error

	// UpdatePassengers writes the seat list and isFull if the stored
	// version still matches trip.Version, then bumps the version.
	// A stale version yields ErrConflict.
	UpdatePassengers(ctx context.Context, trip *models.Trip) error

	// Queries
	ListByRouteDate(ctx context.Context, routeKey, date string) ([]*models.Trip, error)
	ListByDate(ctx context.Context, date string) ([]*models.Trip, error)
	ListUnderfilled(ctx context.Context, date string) ([]*models.Trip, error)
	ListAll(ctx context.Context) ([]*models.Trip, error)
	// ListFrom returns trips dated on or after date, earliest first and
	// by vehicle index within a day.
	ListFrom(ctx context.Context, date string) ([]*models.Trip, error)
}
