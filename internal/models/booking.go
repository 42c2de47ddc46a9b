package models

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusPaid      BookingStatus = "Paid"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCancelled BookingStatus = "Cancelled"
	BookingStatusRefunded  BookingStatus = "Refunded"
)

// AllowedTransitions lists the statuses each status may move to.
// Nothing ever moves back to Pending.
var AllowedTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusPaid, BookingStatusCancelled, BookingStatusRefunded},
	BookingStatusPaid:      {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusRefunded},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusRefunded},
	BookingStatusCancelled: {BookingStatusRefunded},
	BookingStatusRefunded:  {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := AllowedTransitions[s]
	return ok
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range AllowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// HoldsSeat reports whether a booking in this status keeps its seat.
func (s BookingStatus) HoldsSeat() bool {
	return s == BookingStatusPending || s == BookingStatusPaid || s == BookingStatusConfirmed
}

// CountsTowardConfirmation reports whether the status counts as a paid
// occupant when deciding if a trip can be confirmed.
func (s BookingStatus) CountsTowardConfirmation() bool {
	return s == BookingStatusPaid || s == BookingStatusConfirmed
}

type Booking struct {
	ID               string        `json:"id" bson:"_id"`
	FullName         string        `json:"full_name" bson:"full_name"`
	Email            string        `json:"email" bson:"email"`
	Phone            string        `json:"phone" bson:"phone"`
	PickupLocation   string        `json:"pickup_location" bson:"pickup_location"`
	Destination      string        `json:"destination" bson:"destination"`
	IntendedDate     string        `json:"intended_date" bson:"intended_date"` // yyyy-mm-dd
	VehicleType      string        `json:"vehicle_type" bson:"vehicle_type"`
	LuggageCount     int           `json:"luggage_count" bson:"luggage_count"`
	TotalFare        float64       `json:"total_fare" bson:"total_fare"`
	AllowReschedule  bool          `json:"allow_reschedule" bson:"allow_reschedule"`
	Status           BookingStatus `json:"status" bson:"status"`
	TripID           string        `json:"trip_id,omitempty" bson:"trip_id,omitempty"`
	PaymentReference string        `json:"payment_reference,omitempty" bson:"payment_reference,omitempty"`
	ConfirmedDate    string        `json:"confirmed_date,omitempty" bson:"confirmed_date,omitempty"`
	RescheduledCount int           `json:"rescheduled_count" bson:"rescheduled_count"`
	CreatedAt        time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" bson:"updated_at"`
}

// ShortID is the prefix used in rider-facing subjects and messages.
func (b *Booking) ShortID() string {
	if len(b.ID) <= 8 {
		return b.ID
	}
	return b.ID[:8]
}

// Route returns the route tuple the booking travels on.
func (b *Booking) Route() Route {
	return Route{
		PickupLocation: b.PickupLocation,
		Destination:    b.Destination,
		VehicleType:    b.VehicleType,
	}
}

// BookingFilter narrows admin booking listings.
type BookingFilter struct {
	Status       BookingStatus
	IntendedDate string
	TripID       string
	Search       string
}

// BookingStatusUpdate is the set of fields written alongside a status change.
type BookingStatusUpdate struct {
	PaymentReference string
	ConfirmedDate    string
}
