package interfaces

import (
	"context"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/utils"
)

type BookingRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Booking, error)
	Delete(ctx context.Context, id string) error

	// Search and filtering
	List(ctx context.Context, filter *models.BookingFilter, params *utils.PaginationParams) ([]*models.Booking, int64, error)
	ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)

	// Seat operations
	// SetTrip links the booking to a trip. It fails with ErrConflict when
	// the booking's status no longer holds a seat.
	SetTrip(ctx context.Context, id, tripID string) error
	ClearTrip(ctx context.Context, id string) error
	PrepareReschedule(ctx context.Context, id, newDate string) error

	// TransitionStatus moves the booking to status only if its current
	// status is one of from. It reports whether a write happened.
	TransitionStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus, update *models.BookingStatusUpdate) (bool, error)
}
