package utils

import "time"

// Application Constants
const (
	AppName    = "Shuttle"
	AppVersion = "1.0.0"

	DefaultCurrency = "NGN"
	DefaultTimeZone = "Africa/Lagos"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Purges
	DeleteBatchSize  = 500
	CleanupChunkSize = 100

	// Cache
	DefaultAvailabilityTTL = 30 * time.Second
	SweepLockTTL           = 30 * time.Minute
	AvailabilityGenTTL     = 48 * time.Hour
)

// Status Constants
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInternalServer   = "Internal server error"
	ErrUnauthorized     = "Unauthorized access"
	ErrNotFound         = "Resource not found"
	ErrValidationFailed = "Validation failed"
	ErrRouteUnavailable = "This route is not available for booking"
	ErrTripFull         = "All vehicles for this date are full, please pick another date"
)

// Success Messages
const (
	MsgBookingCreated     = "Booking created successfully"
	MsgBookingRetrieved   = "Booking retrieved successfully"
	MsgBookingsRetrieved  = "Bookings retrieved successfully"
	MsgBookingUpdated     = "Booking updated successfully"
	MsgBookingCancelled   = "Booking cancelled successfully"
	MsgBookingDeleted     = "Booking deleted successfully"
	MsgBookingRescheduled = "Booking rescheduled successfully"
	MsgPaymentVerified    = "Payment verified successfully"
	MsgRefundRequested    = "Refund request sent to the operator"
	MsgAvailability       = "Seat availability retrieved successfully"
	MsgPriceRuleSaved     = "Price rule saved successfully"
	MsgSettingsUpdated    = "Settings updated successfully"
	MsgSweepCompleted     = "Sweep completed successfully"
)

// Cache Key Prefixes
const (
	CacheKeyAvailability = "availability:"
	CacheKeyAvailGen     = "availability:gen:"
	CacheKeySweepLock    = "lock:sweep:"
)

// Header Names
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderAuthorization = "Authorization"
	HeaderStripeSig     = "Stripe-Signature"
	HeaderRazorpaySig   = "X-Razorpay-Signature"
)

// Context Keys
const (
	ContextKeyRequestID = "request_id"
	ContextKeyAdminID   = "admin_id"
)
