package services

import (
	"errors"
	"fmt"

	"shuttle/internal/repositories/interfaces"
)

// domainError is a sentinel that also matches its parent category with
// errors.Is.
type domainError struct {
	msg    string
	parent error
}

func (e *domainError) Error() string { return e.msg }

func (e *domainError) Unwrap() error { return e.parent }

func newDomainError(msg string, parent error) error {
	return &domainError{msg: msg, parent: parent}
}

// Categories.
var (
	ErrConfiguration    = errors.New("route unavailable")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrConflict         = interfaces.ErrConflict
	ErrNotFound         = interfaces.ErrNotFound
	ErrExternalService  = errors.New("external service failure")
	ErrValidation       = errors.New("validation failed")
)

var (
	ErrNoCapacityRule       = newDomainError("no capacity rule for route", ErrConfiguration)
	ErrRouteDisabled        = newDomainError("route is disabled", ErrConfiguration)
	ErrUnknownVehicleType   = newDomainError("unknown vehicle type", ErrConfiguration)
	ErrTripFull             = newDomainError("all trips for this date are full", ErrCapacityExceeded)
	ErrBookingNotFound      = newDomainError("booking not found", ErrNotFound)
	ErrTripNotFound         = newDomainError("trip not found", ErrNotFound)
	ErrPriceRuleNotFound    = newDomainError("price rule not found", ErrNotFound)
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrBookingNotSeatable   = newDomainError("booking no longer holds a seat", ErrInvalidTransition)
	ErrMissingCorrelation   = newDomainError("payment is missing its booking reference", ErrExternalService)
	ErrPaymentNotSuccessful = errors.New("payment was not successful")
	ErrPaymentsDisabled     = errors.New("online payments are disabled")
	ErrRefundNotAllowed     = errors.New("refund not allowed for this booking")
	ErrBookingWindowClosed  = newDomainError("date is outside the booking window", ErrValidation)
	ErrSameRoute            = newDomainError("pickup and destination must differ", ErrValidation)
	ErrTooMuchLuggage       = newDomainError("luggage exceeds vehicle allowance", ErrValidation)
	ErrInvalidDate          = newDomainError("date must be yyyy-mm-dd", ErrValidation)
	ErrSweepInProgress      = errors.New("sweep already in progress")
)

// AssignmentError reports why a booking could not be seated.
type AssignmentError struct {
	BookingID string
	Reason    error
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("failed to assign booking %s: %v", e.BookingID, e.Reason)
}

func (e *AssignmentError) Unwrap() error { return e.Reason }

// TransitionError reports a rejected status change.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
