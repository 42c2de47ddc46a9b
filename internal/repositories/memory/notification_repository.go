package memory

import (
	"context"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"

	"github.com/google/uuid"
)

type notificationRepository struct {
	store *Store
}

func NewNotificationRepository(store *Store) interfaces.NotificationRepository {
	return &notificationRepository{store: store}
}

// Create does not count toward Writes; the log is not booking state.
func (r *notificationRepository) Create(ctx context.Context, log *models.NotificationLog) error {
	defer r.store.lock(ctx)()

	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	r.store.notifications = append(r.store.notifications, *log)
	return nil
}

func (r *notificationRepository) ListByBooking(ctx context.Context, bookingID string) ([]*models.NotificationLog, error) {
	defer r.store.lock(ctx)()

	logs := make([]*models.NotificationLog, 0)
	for i := len(r.store.notifications) - 1; i >= 0; i-- {
		if r.store.notifications[i].BookingID == bookingID {
			entry := r.store.notifications[i]
			logs = append(logs, &entry)
		}
	}
	return logs, nil
}
