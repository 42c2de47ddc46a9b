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
	"shuttle/pkg/payment"

	"github.com/google/uuid"
)

type BookingService interface {
	// Intake
	// Create stores a Pending booking and seats it. When seating fails the
	// booking is still returned alongside the error.
	Create(ctx context.Context, request *CreateBookingRequest) (*models.Booking, error)
	InitializeCheckout(ctx context.Context, request *CreateBookingRequest) (*CheckoutResult, error)

	// Payment
	Pay(ctx context.Context, bookingID, reference string) (*models.Booking, error)
	VerifyPayment(ctx context.Context, reference string) (*models.Booking, error)

	// Lifecycle
	Cancel(ctx context.Context, bookingID string) (*models.Booking, error)
	Delete(ctx context.Context, bookingID string) error
	DeleteInRange(ctx context.Context, startDate, endDate string) (*models.DeleteRangeReport, error)
	ManualReschedule(ctx context.Context, bookingID, newDate string) (*models.Booking, error)
	RequestRefund(ctx context.Context, bookingID string) error
	UpdateStatus(ctx context.Context, bookingID string, status models.BookingStatus) (*models.Booking, error)

	// Queries
	Get(ctx context.Context, bookingID string) (*models.Booking, error)
	List(ctx context.Context, filter *models.BookingFilter, params *utils.PaginationParams) ([]*models.Booking, int64, error)
}

type CreateBookingRequest struct {
	FullName        string `json:"full_name" binding:"required,min=2,max=100"`
	Email           string `json:"email" binding:"required,email"`
	Phone           string `json:"phone" binding:"required,phone_number"`
	PickupLocation  string `json:"pickup_location" binding:"required,location"`
	Destination     string `json:"destination" binding:"required,location,nefield=PickupLocation"`
	IntendedDate    string `json:"intended_date" binding:"required,isodate"`
	VehicleType     string `json:"vehicle_type" binding:"required,vehicletype"`
	LuggageCount    int    `json:"luggage_count" binding:"gte=0"`
	AllowReschedule bool   `json:"allow_reschedule"`
}

type CheckoutResult struct {
	Booking         *models.Booking `json:"booking"`
	PaymentRequired bool            `json:"payment_required"`
	Reference       string          `json:"reference,omitempty"`
	RedirectURL     string          `json:"redirect_url,omitempty"`
}

type BookingServiceConfig struct {
	LuggageFare float64
	Currency    string
	Location    *time.Location
}

type bookingService struct {
	tx           interfaces.TxRunner
	bookingRepo  interfaces.BookingRepository
	tripRepo     interfaces.TripRepository
	capacity     RouteCapacityService
	assignment   TripAssignmentService
	confirmation TripConfirmationService
	cleanup      CleanupService
	availability AvailabilityService
	notifier     NotificationService
	settings     SettingsService
	gateway      payment.CheckoutGateway
	config       BookingServiceConfig
	now          func() time.Time
	logger       *logger.Logger
}

// NewBookingService accepts a nil gateway; checkout then always falls back
// to offline payment.
func NewBookingService(
	tx interfaces.TxRunner,
	bookingRepo interfaces.BookingRepository,
	tripRepo interfaces.TripRepository,
	capacity RouteCapacityService,
	assignment TripAssignmentService,
	confirmation TripConfirmationService,
	cleanup CleanupService,
	availability AvailabilityService,
	notifier NotificationService,
	settings SettingsService,
	gateway payment.CheckoutGateway,
	config BookingServiceConfig,
	logger *logger.Logger,
) BookingService {
	if config.Currency == "" {
		config.Currency = utils.DefaultCurrency
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &bookingService{
		tx:           tx,
		bookingRepo:  bookingRepo,
		tripRepo:     tripRepo,
		capacity:     capacity,
		assignment:   assignment,
		confirmation: confirmation,
		cleanup:      cleanup,
		availability: availability,
		notifier:     notifier,
		settings:     settings,
		gateway:      gateway,
		config:       config,
		now:          time.Now,
		logger:       logger,
	}
}

func (s *bookingService) Create(ctx context.Context, request *CreateBookingRequest) (*models.Booking, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, request, settings)
}

func (s *bookingService) create(ctx context.Context, request *CreateBookingRequest, settings *models.Settings) (*models.Booking, error) {
	if !utils.IsValidDate(request.IntendedDate) {
		return nil, ErrInvalidDate
	}
	if !settings.AllowsDate(request.IntendedDate) {
		return nil, ErrBookingWindowClosed
	}
	if request.PickupLocation == request.Destination {
		return nil, ErrSameRoute
	}

	vehicle, ok := models.LookupVehicleType(request.VehicleType)
	if !ok {
		return nil, ErrUnknownVehicleType
	}
	route := models.Route{
		PickupLocation: request.PickupLocation,
		Destination:    request.Destination,
		VehicleType:    vehicle.Name,
	}

	capacity, err := s.capacity.Lookup(ctx, route)
	if err != nil {
		return nil, err
	}
	if request.LuggageCount < 0 || request.LuggageCount > capacity.MaxLuggage {
		return nil, ErrTooMuchLuggage
	}

	now := s.now()
	booking := &models.Booking{
		ID:              uuid.NewString(),
		FullName:        request.FullName,
		Email:           utils.NormalizeEmail(request.Email),
		Phone:           utils.NormalizePhone(request.Phone),
		PickupLocation:  route.PickupLocation,
		Destination:     route.Destination,
		IntendedDate:    request.IntendedDate,
		VehicleType:     route.VehicleType,
		LuggageCount:    request.LuggageCount,
		TotalFare:       capacity.Fare + float64(request.LuggageCount)*s.config.LuggageFare,
		AllowReschedule: request.AllowReschedule,
		Status:          models.BookingStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.logger.LogBookingEvent(booking.ID, "booking_created", map[string]interface{}{
		"route_key": capacity.RouteKey,
		"date":      booking.IntendedDate,
		"fare":      booking.TotalFare,
	})
	s.notifier.Dispatch(ctx, models.NotificationKindBookingReceived, riderOf(booking), bookingPayload(booking))

	if _, err := s.assignment.Assign(ctx, booking); err != nil {
		return booking, err
	}

	return booking, nil
}

func (s *bookingService) InitializeCheckout(ctx context.Context, request *CreateBookingRequest) (*CheckoutResult, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	booking, err := s.create(ctx, request, settings)
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{Booking: booking}
	if !settings.PaymentEnabled || s.gateway == nil {
		return result, nil
	}

	session, err := s.gateway.Initialize(ctx, &payment.CheckoutRequest{
		AmountMinor: utils.ToMinorUnits(booking.TotalFare, s.config.Currency),
		Currency:    s.config.Currency,
		Email:       booking.Email,
		Name:        booking.FullName,
		Description: fmt.Sprintf("%s to %s on %s (%s)", booking.PickupLocation, booking.Destination, booking.IntendedDate, booking.VehicleType),
		Metadata: map[string]string{
			payment.MetadataBookingID: booking.ID,
			"email":                   booking.Email,
			"name":                    booking.FullName,
		},
	})
	if err != nil {
		s.logger.WithError(err).WithBookingID(booking.ID).Error("Failed to initialize checkout")
		return nil, fmt.Errorf("%w: %s checkout: %v", ErrExternalService, s.gateway.Name(), err)
	}

	s.logger.LogPaymentEvent(booking.ID, session.Reference, "checkout_initialized", booking.TotalFare, s.config.Currency)

	result.PaymentRequired = true
	result.Reference = session.Reference
	result.RedirectURL = session.RedirectURL
	return result, nil
}

func (s *bookingService) Pay(ctx context.Context, bookingID, reference string) (*models.Booking, error) {
	booking, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case models.BookingStatusPaid, models.BookingStatusConfirmed:
		s.logger.WithBookingID(bookingID).WithField("reference", reference).Info("Payment already recorded")
		return booking, nil
	case models.BookingStatusCancelled, models.BookingStatusRefunded:
		return nil, &TransitionError{From: string(booking.Status), To: string(models.BookingStatusPaid)}
	}

	ok, err := s.bookingRepo.TransitionStatus(ctx, bookingID,
		[]models.BookingStatus{models.BookingStatusPending},
		models.BookingStatusPaid,
		&models.BookingStatusUpdate{PaymentReference: reference},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	if !ok {
		current, err := s.Get(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if current.Status.CountsTowardConfirmation() {
			return current, nil
		}
		return nil, &TransitionError{From: string(current.Status), To: string(models.BookingStatusPaid)}
	}

	booking.Status = models.BookingStatusPaid
	if reference != "" {
		booking.PaymentReference = reference
	}
	s.logger.LogPaymentEvent(bookingID, reference, "payment_recorded", booking.TotalFare, s.config.Currency)

	s.secureSeat(ctx, booking)

	return s.Get(ctx, bookingID)
}

// secureSeat turns the paid booking's hold into a permanent seat, or seats
// it again when the hold lapsed before payment arrived.
func (s *bookingService) secureSeat(ctx context.Context, booking *models.Booking) {
	if booking.TripID != "" {
		kept, err := s.clearHold(ctx, booking)
		if err != nil {
			s.logger.WithError(err).WithBookingID(booking.ID).WithTripID(booking.TripID).Error("Failed to secure seat for paid booking")
			return
		}
		if kept {
			if _, err := s.confirmation.CheckAndConfirm(ctx, booking.TripID); err != nil {
				s.logger.WithError(err).WithTripID(booking.TripID).Warn("Trip confirmation check failed")
			}
			return
		}
		s.logger.WithBookingID(booking.ID).WithTripID(booking.TripID).Warn("Seat hold lapsed before payment, seating again")
	}

	if _, err := s.assignment.Assign(ctx, booking); err != nil {
		if errors.Is(err, ErrBookingNotSeatable) {
			s.logger.WithBookingID(booking.ID).Info("Booking left seat-holding status before it could be seated")
			return
		}
		s.logger.WithError(err).WithBookingID(booking.ID).Error("Paid booking has no seat")
	}
}

func (s *bookingService) clearHold(ctx context.Context, booking *models.Booking) (bool, error) {
	kept := false

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		kept = false
		now := s.now()

		trip, err := s.tripRepo.GetByID(txCtx, booking.TripID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil
			}
			return err
		}

		for i, seat := range trip.Passengers {
			if seat.BookingID != booking.ID {
				continue
			}
			if !seat.IsActive(now) {
				return nil
			}
			kept = true
			if seat.HeldUntil == nil {
				return nil
			}
			trip.Passengers[i].HeldUntil = nil
			trip.SetPassengers(trip.Passengers, now)
			return s.tripRepo.UpdatePassengers(txCtx, trip)
		}
		return nil
	})
	return kept, err
}

func (s *bookingService) VerifyPayment(ctx context.Context, reference string) (*models.Booking, error) {
	if s.gateway == nil {
		return nil, ErrPaymentsDisabled
	}

	result, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		s.logger.WithError(err).WithField("reference", reference).Error("Payment verification failed")
		return nil, fmt.Errorf("%w: %s verify: %v", ErrExternalService, s.gateway.Name(), err)
	}
	if !result.Success {
		s.logger.WithFields(map[string]interface{}{
			"reference": reference,
			"status":    result.Status,
		}).Warn("Payment not successful")
		return nil, ErrPaymentNotSuccessful
	}

	bookingID := result.Metadata[payment.MetadataBookingID]
	if bookingID == "" {
		s.logger.WithField("reference", reference).Error("Verified payment carries no booking id")
		return nil, ErrMissingCorrelation
	}

	if result.Reference != "" {
		reference = result.Reference
	}
	return s.Pay(ctx, bookingID, reference)
}

func (s *bookingService) Cancel(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch {
	case booking.Status == models.BookingStatusCancelled:
		// A previous cancel may have failed to free the seat.
		if booking.TripID == "" {
			return booking, nil
		}
	case !booking.Status.CanTransitionTo(models.BookingStatusCancelled):
		return nil, &TransitionError{From: string(booking.Status), To: string(models.BookingStatusCancelled)}
	default:
		ok, err := s.bookingRepo.TransitionStatus(ctx, bookingID,
			[]models.BookingStatus{models.BookingStatusPending, models.BookingStatusPaid, models.BookingStatusConfirmed},
			models.BookingStatusCancelled,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to cancel booking: %w", err)
		}
		if !ok {
			current, err := s.Get(ctx, bookingID)
			if err != nil {
				return nil, err
			}
			return nil, &TransitionError{From: string(current.Status), To: string(models.BookingStatusCancelled)}
		}

		booking.Status = models.BookingStatusCancelled
		if err := s.latestTrip(ctx, booking); err != nil {
			return nil, err
		}
		s.logger.LogBookingEvent(bookingID, "booking_cancelled", map[string]interface{}{"trip_id": booking.TripID})
		s.notifier.Dispatch(ctx, models.NotificationKindBookingCancelled, riderOf(booking), bookingPayload(booking))
	}

	if err := s.releaseSeat(ctx, booking); err != nil {
		return nil, err
	}

	return s.Get(ctx, bookingID)
}

// latestTrip reloads the trip id after a status change, picking up a seat
// that an assignment committed after booking was read.
func (s *bookingService) latestTrip(ctx context.Context, booking *models.Booking) error {
	current, err := s.Get(ctx, booking.ID)
	if err != nil {
		return err
	}
	booking.TripID = current.TripID
	return nil
}

// releaseSeat frees the booking's seat and then forgets the trip, so a
// failure in between leaves the trip id for a retry to find.
func (s *bookingService) releaseSeat(ctx context.Context, booking *models.Booking) error {
	if booking.TripID == "" {
		return nil
	}

	if _, err := s.cleanup.ReleaseSeats(ctx, booking.TripID, []string{booking.ID}); err != nil {
		return err
	}
	if err := s.bookingRepo.ClearTrip(ctx, booking.ID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return fmt.Errorf("failed to clear trip on booking: %w", err)
	}
	booking.TripID = ""
	return nil
}

func (s *bookingService) Delete(ctx context.Context, bookingID string) error {
	booking, err := s.Get(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := s.bookingRepo.Delete(ctx, bookingID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	if booking.TripID != "" {
		if _, err := s.cleanup.ReleaseSeats(ctx, booking.TripID, []string{bookingID}); err != nil {
			return err
		}
	}

	s.logger.LogBookingEvent(bookingID, "booking_deleted", map[string]interface{}{"trip_id": booking.TripID})
	return nil
}

func (s *bookingService) DeleteInRange(ctx context.Context, startDate, endDate string) (*models.DeleteRangeReport, error) {
	start, end, err := utils.DayRange(startDate, endDate, s.config.Location)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: start date is after end date", ErrValidation)
	}

	bookings, err := s.bookingRepo.ListCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	report := &models.DeleteRangeReport{}
	seated := make([]string, 0)

	for i := 0; i < len(bookings); i += utils.DeleteBatchSize {
		batch := bookings[i:min(i+utils.DeleteBatchSize, len(bookings))]

		ids := make([]string, 0, len(batch))
		for _, b := range batch {
			ids = append(ids, b.ID)
			if b.TripID != "" {
				seated = append(seated, b.ID)
			}
		}

		deleted, err := s.bookingRepo.DeleteMany(ctx, ids)
		if err != nil {
			return report, fmt.Errorf("failed to delete bookings: %w", err)
		}
		report.BookingsDeleted += int(deleted)
	}

	for i := 0; i < len(seated); i += utils.CleanupChunkSize {
		chunk := seated[i:min(i+utils.CleanupChunkSize, len(seated))]

		cleanup, err := s.cleanup.Cleanup(ctx, chunk)
		if err != nil {
			return report, err
		}
		report.TripsModified += cleanup.TripsModified
	}

	s.logger.WithFields(map[string]interface{}{
		"start_date":       startDate,
		"end_date":         endDate,
		"bookings_deleted": report.BookingsDeleted,
		"trips_modified":   report.TripsModified,
	}).Info("Bookings deleted in range")

	return report, nil
}

func (s *bookingService) ManualReschedule(ctx context.Context, bookingID, newDate string) (*models.Booking, error) {
	if !utils.IsValidDate(newDate) {
		return nil, ErrInvalidDate
	}

	var booking *models.Booking
	var oldTrip *models.Trip
	var oldDate string

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		booking, oldTrip = nil, nil
		now := s.now()

		b, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if !b.Status.HoldsSeat() {
			return fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
		}

		if b.TripID != "" {
			trip, err := s.tripRepo.GetByID(txCtx, b.TripID)
			switch {
			case errors.Is(err, interfaces.ErrNotFound):
			case err != nil:
				return err
			case trip.HasBooking(b.ID):
				trip.SetPassengers(withoutBooking(trip.Passengers, b.ID), now)
				if err := s.tripRepo.UpdatePassengers(txCtx, trip); err != nil {
					return err
				}
				oldTrip = trip
			}
		}

		if err := s.bookingRepo.PrepareReschedule(txCtx, b.ID, newDate); err != nil {
			return err
		}

		oldDate = b.IntendedDate
		b.IntendedDate = newDate
		b.TripID = ""
		b.RescheduledCount++
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if oldTrip != nil {
		s.availability.Invalidate(ctx, oldTrip.RouteKey, oldTrip.Date)
	}

	s.logger.LogBookingEvent(bookingID, "booking_rescheduled", map[string]interface{}{
		"old_date":          oldDate,
		"new_date":          newDate,
		"rescheduled_count": booking.RescheduledCount,
	})

	if _, err := s.assignment.Assign(ctx, booking); err != nil {
		return booking, err
	}

	payload := bookingPayload(booking)
	payload["old_date"] = oldDate
	payload["new_date"] = newDate
	s.notifier.Dispatch(ctx, models.NotificationKindRescheduledManual, riderOf(booking), payload)

	return booking, nil
}

func (s *bookingService) RequestRefund(ctx context.Context, bookingID string) error {
	booking, err := s.Get(ctx, bookingID)
	if err != nil {
		return err
	}

	if booking.Status != models.BookingStatusCancelled {
		return fmt.Errorf("%w: booking must be cancelled first", ErrRefundNotAllowed)
	}
	if booking.PaymentReference == "" {
		return fmt.Errorf("%w: booking has no payment on record", ErrRefundNotAllowed)
	}

	payload := bookingPayload(booking)
	payload["payment_reference"] = booking.PaymentReference
	payload["email"] = booking.Email
	payload["phone"] = booking.Phone

	if err := s.notifier.Notify(ctx, models.NotificationKindRefundRequest, s.notifier.Operator(), payload); err != nil {
		return err
	}

	s.logger.LogBookingEvent(bookingID, "refund_requested", map[string]interface{}{
		"payment_reference": booking.PaymentReference,
	})
	return nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	booking, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch status {
	case models.BookingStatusPaid:
		return s.Pay(ctx, bookingID, booking.PaymentReference)
	case models.BookingStatusCancelled:
		return s.Cancel(ctx, bookingID)
	}

	if booking.Status == status {
		return booking, nil
	}
	if !booking.Status.CanTransitionTo(status) {
		return nil, &TransitionError{From: string(booking.Status), To: string(status)}
	}

	from := []models.BookingStatus{booking.Status}
	update := &models.BookingStatusUpdate{}
	if status == models.BookingStatusConfirmed {
		update.ConfirmedDate = booking.IntendedDate
	}

	ok, err := s.bookingRepo.TransitionStatus(ctx, bookingID, from, status, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	if !ok {
		current, err := s.Get(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		return nil, &TransitionError{From: string(current.Status), To: string(status)}
	}

	s.logger.LogBookingEvent(bookingID, "status_updated", map[string]interface{}{
		"from": booking.Status,
		"to":   status,
	})
	booking.Status = status

	switch status {
	case models.BookingStatusConfirmed:
		booking.ConfirmedDate = update.ConfirmedDate
		s.notifier.Dispatch(ctx, models.NotificationKindBookingConfirmed, riderOf(booking), bookingPayload(booking))
		if booking.TripID != "" {
			if _, err := s.confirmation.CheckAndConfirm(ctx, booking.TripID); err != nil {
				s.logger.WithError(err).WithTripID(booking.TripID).Warn("Trip confirmation check failed")
			}
		}
	case models.BookingStatusRefunded:
		s.notifier.Dispatch(ctx, models.NotificationKindBookingRefunded, riderOf(booking), bookingPayload(booking))
		if err := s.latestTrip(ctx, booking); err != nil {
			return nil, err
		}
		if err := s.releaseSeat(ctx, booking); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, bookingID)
}

func (s *bookingService) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, filter *models.BookingFilter, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	if params == nil {
		params = utils.DefaultPagination()
	}

	bookings, total, err := s.bookingRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, total, nil
}
