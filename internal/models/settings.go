package models

import (
	"time"
)

const GlobalSettingsID = "global"

// Settings are the runtime intake switches an admin can flip without a
// deploy. Window bounds are yyyy-mm-dd and inclusive; empty means open.
type Settings struct {
	ID                 string    `json:"id" bson:"_id"`
	PaymentEnabled     bool      `json:"payment_enabled" bson:"payment_enabled"`
	BookingWindowStart string    `json:"booking_window_start" bson:"booking_window_start"`
	BookingWindowEnd   string    `json:"booking_window_end" bson:"booking_window_end"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at"`
}

// AllowsDate reports whether date falls inside the booking window.
// Dates compare lexically since both sides are yyyy-mm-dd.
func (s *Settings) AllowsDate(date string) bool {
	if s.BookingWindowStart != "" && date < s.BookingWindowStart {
		return false
	}
	if s.BookingWindowEnd != "" && date > s.BookingWindowEnd {
		return false
	}
	return true
}
