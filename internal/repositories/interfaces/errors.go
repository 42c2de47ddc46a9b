package interfaces

import "errors"

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a write loses an optimistic race.
	// Transaction runners retry it a bounded number of times.
	ErrConflict = errors.New("concurrent modification conflict")
)
