package models

import (
	"fmt"
	"time"
)

// DefaultHoldDuration is how long a Pending booking keeps its seat before
// the hold lapses.
const DefaultHoldDuration = 7 * time.Minute

// SeatEntry is one passenger's seat on a trip. HeldUntil is set only for
// bookings that were Pending when seated.
type SeatEntry struct {
	BookingID string     `json:"booking_id" bson:"booking_id"`
	Name      string     `json:"name" bson:"name"`
	Phone     string     `json:"phone" bson:"phone"`
	HeldUntil *time.Time `json:"held_until,omitempty" bson:"held_until,omitempty"`
}

// IsActive reports whether the seat still counts as occupied at now.
func (s SeatEntry) IsActive(now time.Time) bool {
	return s.HeldUntil == nil || s.HeldUntil.After(now)
}

// ActiveSeats drops entries whose hold has lapsed. It never mutates entries.
func ActiveSeats(entries []SeatEntry, now time.Time) []SeatEntry {
	active := make([]SeatEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsActive(now) {
			active = append(active, entry)
		}
	}
	return active
}

// Trip is one vehicle run for a route and date. Its id is derived from the
// route key, date and index so concurrent writers converge on one document.
type Trip struct {
	ID             string      `json:"id" bson:"_id"`
	RouteKey       string      `json:"route_key" bson:"route_key"`
	PickupLocation string      `json:"pickup_location" bson:"pickup_location"`
	Destination    string      `json:"destination" bson:"destination"`
	VehicleType    string      `json:"vehicle_type" bson:"vehicle_type"`
	Date           string      `json:"date" bson:"date"`
	VehicleIndex   int         `json:"vehicle_index" bson:"vehicle_index"`
	Capacity       int         `json:"capacity" bson:"capacity"`
	Passengers     []SeatEntry `json:"passengers" bson:"passengers"`
	IsFull         bool        `json:"is_full" bson:"is_full"`
	Version        int64       `json:"version" bson:"version"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" bson:"updated_at"`
}

func TripID(routeKey, date string, index int) string {
	return fmt.Sprintf("%s_%s_%d", routeKey, date, index)
}

func (t *Trip) ActiveCount(now time.Time) int {
	count := 0
	for _, p := range t.Passengers {
		if p.IsActive(now) {
			count++
		}
	}
	return count
}

// SetPassengers replaces the seat list and recomputes IsFull from it.
func (t *Trip) SetPassengers(passengers []SeatEntry, now time.Time) {
	t.Passengers = passengers
	t.IsFull = t.ActiveCount(now) >= t.Capacity
}

func (t *Trip) HasBooking(bookingID string) bool {
	for _, p := range t.Passengers {
		if p.BookingID == bookingID {
			return true
		}
	}
	return false
}

func (t *Trip) BookingIDs() []string {
	ids := make([]string, 0, len(t.Passengers))
	for _, p := range t.Passengers {
		ids = append(ids, p.BookingID)
	}
	return ids
}

// Availability is the seat summary shown before a booking is submitted.
type Availability struct {
	// AvailableSeats goes negative when a route's vehicle count is cut
	// below the seats already taken.
	AvailableSeats int  `json:"available_seats"`
	TotalCapacity  int  `json:"total_capacity"`
	IsFull         bool `json:"is_full"`
}
