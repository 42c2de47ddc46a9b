package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/internal/utils"
	"shuttle/pkg/logger"
	"shuttle/pkg/mailer"
	"shuttle/pkg/sms"

	"github.com/google/uuid"
)

// NotificationService delivers rider messages and operator alerts.
// Failures never roll back the operation that triggered them.
type NotificationService interface {
	Notify(ctx context.Context, kind models.NotificationKind, recipient models.Recipient, payload map[string]interface{}) error
	// Dispatch sends in the background and only logs failures.
	Dispatch(ctx context.Context, kind models.NotificationKind, recipient models.Recipient, payload map[string]interface{})
	Operator() models.Recipient
	History(ctx context.Context, bookingID string) ([]*models.NotificationLog, error)
	// Wait blocks until in-flight dispatches finish.
	Wait()
}

// NotificationChannel is one delivery medium.
type NotificationChannel interface {
	Name() string
	// Accepts reports whether the recipient can be reached on this channel.
	Accepts(recipient models.Recipient) bool
	Deliver(ctx context.Context, notification *models.Notification) error
}

type notificationService struct {
	channels []NotificationChannel
	logRepo  interfaces.NotificationRepository
	operator models.Recipient
	timeout  time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
	logger   *logger.Logger
}

func NewNotificationService(
	channels []NotificationChannel,
	logRepo interfaces.NotificationRepository,
	operator models.Recipient,
	timeout time.Duration,
	logger *logger.Logger,
) NotificationService {
	return &notificationService{
		channels: channels,
		logRepo:  logRepo,
		operator: operator,
		timeout:  timeout,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *notificationService) Operator() models.Recipient {
	return s.operator
}

func (s *notificationService) Notify(ctx context.Context, kind models.NotificationKind, recipient models.Recipient, payload map[string]interface{}) error {
	subject, body := renderNotification(kind, payload)
	notification := &models.Notification{
		Kind:      kind,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Data:      payload,
	}

	var delivered []string
	var errs []error
	for _, channel := range s.channels {
		if !channel.Accepts(recipient) {
			continue
		}
		if err := channel.Deliver(ctx, notification); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", channel.Name(), err))
			continue
		}
		delivered = append(delivered, channel.Name())
	}

	var err error
	if len(delivered) == 0 {
		if len(errs) == 0 {
			err = fmt.Errorf("no channel can reach recipient %q", recipient.Name)
		} else {
			err = errors.Join(errs...)
		}
	}

	s.record(ctx, notification, delivered, err)

	if err != nil {
		return fmt.Errorf("%w: notification %s: %v", ErrExternalService, kind, err)
	}
	return nil
}

func (s *notificationService) Dispatch(ctx context.Context, kind models.NotificationKind, recipient models.Recipient, payload map[string]interface{}) {
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		if err := s.Notify(ctx, kind, recipient, payload); err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"kind":       kind,
				"booking_id": payload["booking_id"],
				"email":      utils.MaskEmail(recipient.Email),
				"phone":      utils.MaskPhone(recipient.Phone),
			}).Warn("Notification not delivered")
		}
	}()
}

func (s *notificationService) Wait() {
	s.wg.Wait()
}

func (s *notificationService) History(ctx context.Context, bookingID string) ([]*models.NotificationLog, error) {
	logs, err := s.logRepo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return logs, nil
}

func (s *notificationService) record(ctx context.Context, n *models.Notification, channels []string, deliveryErr error) {
	if s.logRepo == nil {
		return
	}

	entry := &models.NotificationLog{
		ID:        uuid.NewString(),
		Kind:      n.Kind,
		Recipient: n.Recipient,
		Subject:   n.Subject,
		Status:    models.NotificationStatusSent,
		Channels:  channels,
		CreatedAt: s.now(),
	}
	if id, ok := n.Data["booking_id"].(string); ok {
		entry.BookingID = id
	}
	if deliveryErr != nil {
		entry.Status = models.NotificationStatusFailed
		entry.Error = deliveryErr.Error()
	}

	if err := s.logRepo.Create(ctx, entry); err != nil {
		s.logger.WithError(err).WithField("kind", n.Kind).Warn("Failed to record notification")
	}
}

// EmailChannel delivers through SMTP.
type EmailChannel struct {
	mailer  mailer.Mailer
	replyTo string
}

func NewEmailChannel(m mailer.Mailer, replyTo string) *EmailChannel {
	return &EmailChannel{mailer: m, replyTo: replyTo}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Accepts(recipient models.Recipient) bool {
	return recipient.Email != ""
}

func (c *EmailChannel) Deliver(ctx context.Context, n *models.Notification) error {
	return c.mailer.Send(ctx, &mailer.Message{
		To:      []string{n.Recipient.Email},
		ReplyTo: c.replyTo,
		Subject: n.Subject,
		Body:    n.Body,
	})
}

// SMSChannel sends the subject line as a text message.
type SMSChannel struct {
	provider sms.SMSProvider
	from     string
}

func NewSMSChannel(provider sms.SMSProvider, from string) *SMSChannel {
	return &SMSChannel{provider: provider, from: from}
}

func (c *SMSChannel) Name() string { return "sms:" + c.provider.Name() }

func (c *SMSChannel) Accepts(recipient models.Recipient) bool {
	return recipient.Phone != ""
}

func (c *SMSChannel) Deliver(ctx context.Context, n *models.Notification) error {
	_, err := c.provider.SendSMS(ctx, &sms.SMSRequest{
		To:      n.Recipient.Phone,
		From:    c.from,
		Message: n.Subject,
		Type:    "transactional",
	})
	return err
}

func renderNotification(kind models.NotificationKind, payload map[string]interface{}) (string, string) {
	get := func(key string) string {
		if v, ok := payload[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	}

	ref := get("short_id")
	name := get("name")
	route := get("route")

	var subject string
	var lines []string
	switch kind {
	case models.NotificationKindBookingReceived:
		subject = fmt.Sprintf("Booking %s received", ref)
		lines = []string{
			fmt.Sprintf("Hi %s, we have received your booking for %s on %s.", name, route, get("date")),
			fmt.Sprintf("Fare: %s. Your seat is held while payment completes.", get("fare")),
		}
	case models.NotificationKindBookingConfirmed:
		subject = fmt.Sprintf("Booking %s confirmed", ref)
		lines = []string{
			fmt.Sprintf("Hi %s, your trip on %s for %s is confirmed.", name, route, get("date")),
		}
	case models.NotificationKindBookingCancelled:
		subject = fmt.Sprintf("Booking %s cancelled", ref)
		lines = []string{
			fmt.Sprintf("Hi %s, your booking for %s on %s has been cancelled.", name, route, get("date")),
		}
	case models.NotificationKindBookingRefunded:
		subject = fmt.Sprintf("Booking %s refunded", ref)
		lines = []string{
			fmt.Sprintf("Hi %s, your payment for booking %s has been refunded.", name, ref),
		}
	case models.NotificationKindRescheduledAuto, models.NotificationKindRescheduledManual:
		subject = fmt.Sprintf("Booking %s rescheduled to %s", ref, get("new_date"))
		lines = []string{
			fmt.Sprintf("Hi %s, your trip on %s has moved from %s to %s.", name, route, get("old_date"), get("new_date")),
		}
	case models.NotificationKindCapacityOverflowAlert:
		subject = fmt.Sprintf("Booking %s could not be seated", ref)
		lines = []string{
			fmt.Sprintf("Booking %s (%s) for %s on %s has no seat.", get("booking_id"), name, route, get("date")),
			fmt.Sprintf("Reason: %s", get("reason")),
		}
	case models.NotificationKindEscalationAlert:
		subject = fmt.Sprintf("Booking %s needs manual rescheduling", ref)
		lines = []string{
			fmt.Sprintf("Booking %s (%s) on %s missed its trip on %s again.", get("booking_id"), name, route, get("date")),
			"It has already been moved once and was not rescheduled automatically.",
		}
	case models.NotificationKindRefundRequest:
		subject = fmt.Sprintf("Refund requested for booking %s", ref)
		lines = []string{
			fmt.Sprintf("%s asked for a refund of booking %s.", name, get("booking_id")),
			fmt.Sprintf("Payment reference: %s", get("payment_reference")),
		}
	default:
		subject = string(kind)
	}

	return subject, strings.Join(lines, "\n")
}

func bookingPayload(b *models.Booking) map[string]interface{} {
	return map[string]interface{}{
		"booking_id": b.ID,
		"short_id":   b.ShortID(),
		"name":       b.FullName,
		"route":      fmt.Sprintf("%s to %s (%s)", b.PickupLocation, b.Destination, b.VehicleType),
		"date":       b.IntendedDate,
		"fare":       b.TotalFare,
		"status":     string(b.Status),
		"trip_id":    b.TripID,
	}
}

func riderOf(b *models.Booking) models.Recipient {
	return models.Recipient{
		Name:  b.FullName,
		Email: b.Email,
		Phone: b.Phone,
	}
}
