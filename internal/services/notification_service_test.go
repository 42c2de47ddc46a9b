package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/memory"
	"shuttle/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	name      string
	needPhone bool
	err       error

	mu        sync.Mutex
	delivered []*models.Notification
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Accepts(recipient models.Recipient) bool {
	if c.needPhone {
		return recipient.Phone != ""
	}
	return recipient.Email != ""
}

func (c *fakeChannel) Deliver(ctx context.Context, n *models.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.delivered = append(c.delivered, n)
	return nil
}

func (c *fakeChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.delivered)
}

var rider = models.Recipient{Name: "Ada", Email: "ada@example.com", Phone: "+2348000000000"}

func ridePayload() map[string]interface{} {
	return map[string]interface{}{
		"booking_id": "booking-1",
		"short_id":   "booking-",
		"name":       "Ada",
		"route":      "Abeokuta to Ibadan (4-Seater Sienna)",
		"date":       testDate,
	}
}

func TestNotify_DeliversAndRecords(t *testing.T) {
	email := &fakeChannel{name: "email"}
	sms := &fakeChannel{name: "sms", needPhone: true}
	svc := NewNotificationService([]NotificationChannel{email, sms},
		memory.NewNotificationRepository(memory.NewStore()), rider, time.Second, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, models.NotificationKindBookingConfirmed, rider, ridePayload()))

	require.Equal(t, 1, email.count())
	assert.Equal(t, "Booking booking- confirmed", email.delivered[0].Subject)
	assert.Contains(t, email.delivered[0].Body, "Abeokuta to Ibadan")
	assert.Equal(t, 1, sms.count())

	logs, err := svc.History(ctx, "booking-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.NotificationStatusSent, logs[0].Status)
	assert.ElementsMatch(t, []string{"email", "sms"}, logs[0].Channels)
}

func TestNotify_PartialFailureStillSucceeds(t *testing.T) {
	email := &fakeChannel{name: "email", err: errors.New("smtp down")}
	sms := &fakeChannel{name: "sms", needPhone: true}
	svc := NewNotificationService([]NotificationChannel{email, sms}, nil, rider, time.Second, logger.NewNop())

	assert.NoError(t, svc.Notify(context.Background(), models.NotificationKindBookingReceived, rider, ridePayload()))
	assert.Equal(t, 1, sms.count())
}

func TestNotify_FailsWhenNoChannelDelivers(t *testing.T) {
	email := &fakeChannel{name: "email", err: errors.New("smtp down")}
	repo := memory.NewNotificationRepository(memory.NewStore())
	svc := NewNotificationService([]NotificationChannel{email}, repo, rider, time.Second, logger.NewNop())
	ctx := context.Background()

	err := svc.Notify(ctx, models.NotificationKindBookingCancelled, rider, ridePayload())
	assert.ErrorIs(t, err, ErrExternalService)

	err = svc.Notify(ctx, models.NotificationKindBookingCancelled, models.Recipient{Name: "Nobody"}, ridePayload())
	assert.ErrorIs(t, err, ErrExternalService)

	logs, err := svc.History(ctx, "booking-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.NotificationStatusFailed, logs[0].Status)
	assert.NotEmpty(t, logs[0].Error)
}

func TestDispatch_DeliversInBackground(t *testing.T) {
	email := &fakeChannel{name: "email"}
	svc := NewNotificationService([]NotificationChannel{email}, nil, rider, time.Second, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 5; i++ {
		svc.Dispatch(ctx, models.NotificationKindRescheduledAuto, rider, ridePayload())
	}
	cancel()
	svc.Wait()

	assert.Equal(t, 5, email.count())
}

func TestRenderNotification_OperatorAlerts(t *testing.T) {
	payload := ridePayload()
	payload["reason"] = "all trips for this date are full"

	subject, body := renderNotification(models.NotificationKindCapacityOverflowAlert, payload)
	assert.Equal(t, "Booking booking- could not be seated", subject)
	assert.Contains(t, body, "all trips for this date are full")

	subject, _ = renderNotification(models.NotificationKindEscalationAlert, payload)
	assert.Contains(t, subject, "needs manual rescheduling")
	assert.True(t, models.NotificationKindEscalationAlert.IsOperatorAlert())
	assert.False(t, models.NotificationKindBookingReceived.IsOperatorAlert())
}
