package models

import (
	"time"
)

type NotificationKind string
type NotificationStatus string

const (
	NotificationKindBookingReceived       NotificationKind = "booking-received"
	NotificationKindBookingConfirmed      NotificationKind = "booking-confirmed"
	NotificationKindBookingCancelled      NotificationKind = "booking-cancelled"
	NotificationKindBookingRefunded       NotificationKind = "booking-refunded"
	NotificationKindRescheduledAuto       NotificationKind = "booking-rescheduled-auto"
	NotificationKindRescheduledManual     NotificationKind = "booking-rescheduled-manual"
	NotificationKindCapacityOverflowAlert NotificationKind = "capacity-overflow-alert"
	NotificationKindEscalationAlert       NotificationKind = "reschedule-escalation-alert"
	NotificationKindRefundRequest         NotificationKind = "refund-request"

	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// IsOperatorAlert reports whether the kind is addressed to the operator
// rather than the rider.
func (k NotificationKind) IsOperatorAlert() bool {
	switch k {
	case NotificationKindCapacityOverflowAlert, NotificationKindEscalationAlert, NotificationKindRefundRequest:
		return true
	}
	return false
}

type Recipient struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone" bson:"phone"`
}

// Notification is one outbound message. Data carries the kind-specific
// payload (booking id, dates, reason).
type Notification struct {
	Kind      NotificationKind       `json:"kind" bson:"kind"`
	Recipient Recipient              `json:"recipient" bson:"recipient"`
	Subject   string                 `json:"subject" bson:"subject"`
	Body      string                 `json:"body" bson:"body"`
	Data      map[string]interface{} `json:"data" bson:"data"`
}

// NotificationLog records the delivery outcome of a notification.
type NotificationLog struct {
	ID        string             `json:"id" bson:"_id"`
	Kind      NotificationKind   `json:"kind" bson:"kind"`
	BookingID string             `json:"booking_id" bson:"booking_id"`
	Recipient Recipient          `json:"recipient" bson:"recipient"`
	Subject   string             `json:"subject" bson:"subject"`
	Status    NotificationStatus `json:"status" bson:"status"`
	Channels  []string           `json:"channels" bson:"channels"`
	Error     string             `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
