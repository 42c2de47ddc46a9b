package models

import (
	"time"
)

type SweepKind string

const (
	SweepKindCleanup    SweepKind = "cleanup"
	SweepKindReschedule SweepKind = "reschedule"
)

// CleanupReport summarises one cleanup pass.
type CleanupReport struct {
	TripsScanned  int       `json:"trips_scanned"`
	TripsModified int       `json:"trips_modified"`
	SeatsRemoved  int       `json:"seats_removed"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// RescheduleReport summarises one nightly reschedule pass.
type RescheduleReport struct {
	FromDate          string    `json:"from_date"`
	ToDate            string    `json:"to_date"`
	TripsScanned      int       `json:"trips_scanned"`
	PassengersScanned int       `json:"passengers_scanned"`
	Migrated          int       `json:"migrated"`
	Skipped           int       `json:"skipped"`
	Escalated         int       `json:"escalated"`
	Failed            int       `json:"failed"`
	TripsDeleted      int       `json:"trips_deleted"`
	Errors            []string  `json:"errors"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// DeleteRangeReport summarises a purge of bookings by creation date.
type DeleteRangeReport struct {
	BookingsDeleted int `json:"bookings_deleted"`
	TripsModified   int `json:"trips_modified"`
}
