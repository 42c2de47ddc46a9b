package models

// DashboardSummary is the admin overview of the days ahead.
type DashboardSummary struct {
	UpcomingTrips      int        `json:"upcoming_trips"`
	UpcomingPassengers int        `json:"upcoming_passengers"`
	PendingBookings    int64      `json:"pending_bookings"`
	ConfirmedBookings  int64      `json:"confirmed_bookings"`
	RecentTrips        []*Trip    `json:"recent_trips"`
	RecentBookings     []*Booking `json:"recent_bookings"`
}
