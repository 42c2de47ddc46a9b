package interfaces

import (
	"context"

	"shuttle/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, log *models.NotificationLog) error
	ListByBooking(ctx context.Context, bookingID string) ([]*models.NotificationLog, error)
}
