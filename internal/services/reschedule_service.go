package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/internal/utils"
	"shuttle/pkg/logger"
)

// RescheduleService moves riders of yesterday's underfilled trips onto
// today's trips for the same route.
type RescheduleService interface {
	Reschedule(ctx context.Context) (*models.RescheduleReport, error)
}

type rescheduleOutcome int

const (
	outcomeSkipped rescheduleOutcome = iota
	outcomeEscalated
	outcomeMigrate
)

// maxAutoReschedules is how many times a booking may be moved without an
// operator stepping in.
const maxAutoReschedules = 1

type rescheduleService struct {
	tx          interfaces.TxRunner
	tripRepo    interfaces.TripRepository
	bookingRepo interfaces.BookingRepository
	assignment  TripAssignmentService
	notifier    NotificationService
	location    *time.Location
	now         func() time.Time
	logger      *logger.Logger
}

func NewRescheduleService(
	tx interfaces.TxRunner,
	tripRepo interfaces.TripRepository,
	bookingRepo interfaces.BookingRepository,
	assignment TripAssignmentService,
	notifier NotificationService,
	location *time.Location,
	logger *logger.Logger,
) RescheduleService {
	return &rescheduleService{
		tx:          tx,
		tripRepo:    tripRepo,
		bookingRepo: bookingRepo,
		assignment:  assignment,
		notifier:    notifier,
		location:    location,
		now:         time.Now,
		logger:      logger,
	}
}

func (s *rescheduleService) Reschedule(ctx context.Context) (*models.RescheduleReport, error) {
	startedAt := s.now()
	yesterday, today := utils.YesterdayAndToday(startedAt, s.location)

	report := &models.RescheduleReport{
		FromDate:  yesterday,
		ToDate:    today,
		Errors:    []string{},
		StartedAt: startedAt,
	}

	trips, err := s.tripRepo.ListUnderfilled(ctx, yesterday)
	if err != nil {
		return nil, fmt.Errorf("failed to list underfilled trips for %s: %w", yesterday, err)
	}
	report.TripsScanned = len(trips)

	for _, trip := range trips {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = s.now()
			return report, err
		}

		for _, seat := range trip.Passengers {
			report.PassengersScanned++
			s.reschedulePassenger(ctx, trip, seat.BookingID, today, report)
		}

		if err := s.tripRepo.Delete(ctx, trip.ID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			report.Errors = append(report.Errors, fmt.Sprintf("trip %s: delete failed: %v", trip.ID, err))
			s.logger.WithError(err).WithTripID(trip.ID).Error("Failed to delete rescheduled trip")
			continue
		}
		report.TripsDeleted++
	}

	report.FinishedAt = s.now()
	s.logger.LogSweepResult(string(models.SweepKindReschedule), map[string]interface{}{
		"from_date":     report.FromDate,
		"to_date":       report.ToDate,
		"trips_scanned": report.TripsScanned,
		"migrated":      report.Migrated,
		"skipped":       report.Skipped,
		"escalated":     report.Escalated,
		"failed":        report.Failed,
		"trips_deleted": report.TripsDeleted,
	})

	return report, nil
}

func (s *rescheduleService) reschedulePassenger(ctx context.Context, trip *models.Trip, bookingID, today string, report *models.RescheduleReport) {
	var booking *models.Booking
	outcome := outcomeSkipped

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		booking = nil
		outcome = outcomeSkipped

		b, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil
			}
			return err
		}
		booking = b

		if !b.AllowReschedule || !b.Status.HoldsSeat() {
			return nil
		}
		if b.RescheduledCount >= maxAutoReschedules {
			outcome = outcomeEscalated
			return nil
		}

		if err := s.bookingRepo.PrepareReschedule(txCtx, b.ID, today); err != nil {
			return err
		}
		b.IntendedDate = today
		b.TripID = ""
		b.RescheduledCount++
		outcome = outcomeMigrate
		return nil
	})
	if err != nil {
		report.Failed++
		report.Errors = append(report.Errors, fmt.Sprintf("booking %s: %v", bookingID, err))
		s.logger.WithError(err).WithBookingID(bookingID).WithTripID(trip.ID).Error("Failed to prepare booking for reschedule")
		return
	}

	switch outcome {
	case outcomeSkipped:
		report.Skipped++

	case outcomeEscalated:
		report.Escalated++
		s.logger.WithBookingID(booking.ID).WithField("rescheduled_count", booking.RescheduledCount).
			Warn("Booking missed a rescheduled trip, escalating to operator")
		s.notifier.Dispatch(ctx, models.NotificationKindEscalationAlert, s.notifier.Operator(), bookingPayload(booking))

	case outcomeMigrate:
		if _, err := s.assignment.Assign(ctx, booking); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("booking %s: %v", booking.ID, err))
			return
		}
		report.Migrated++

		payload := bookingPayload(booking)
		payload["old_date"] = trip.Date
		payload["new_date"] = today
		s.notifier.Dispatch(ctx, models.NotificationKindRescheduledAuto, riderOf(booking), payload)
	}
}
