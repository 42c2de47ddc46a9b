package handlers

import (
	"net/http"

	"shuttle/internal/middleware"
	"shuttle/internal/models"
	"shuttle/internal/services"
	"shuttle/internal/utils"
	"shuttle/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the operator dashboard.
type AdminHandler struct {
	bookingService      services.BookingService
	capacityService     services.RouteCapacityService
	tripService         services.TripService
	settingsService     services.SettingsService
	sweepService        services.SweepService
	notificationService services.NotificationService
	audit               *logger.AuditLogger
	logger              *logger.Logger
}

func NewAdminHandler(
	bookingService services.BookingService,
	capacityService services.RouteCapacityService,
	tripService services.TripService,
	settingsService services.SettingsService,
	sweepService services.SweepService,
	notificationService services.NotificationService,
	log *logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		bookingService:      bookingService,
		capacityService:     capacityService,
		tripService:         tripService,
		settingsService:     settingsService,
		sweepService:        sweepService,
		notificationService: notificationService,
		audit:               logger.NewAuditLogger(log),
		logger:              log,
	}
}

// Bookings

// ListBookings lists bookings with optional status, date and trip filters
func (h *AdminHandler) ListBookings(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := &models.BookingFilter{
		Status:       models.BookingStatus(c.Query("status")),
		IntendedDate: c.Query("date"),
		TripID:       c.Query("trip_id"),
		Search:       params.Search,
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		utils.BadRequestResponse(c, "Unknown booking status")
		return
	}
	if filter.IntendedDate != "" && !utils.IsValidDate(filter.IntendedDate) {
		utils.BadRequestResponse(c, "date must be yyyy-mm-dd")
		return
	}

	bookings, total, err := h.bookingService.List(c.Request.Context(), filter, params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, utils.MsgBookingsRetrieved, bookings, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(bookings),
	})
}

func (h *AdminHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, utils.MsgBookingRetrieved, booking)
}

type updateStatusRequest struct {
	Status models.BookingStatus `json:"status" binding:"required"`
}

// UpdateBookingStatus applies a manual status change
func (h *AdminHandler) UpdateBookingStatus(c *gin.Context) {
	var request updateStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBindingError(c, err)
		return
	}

	booking, err := h.bookingService.UpdateStatus(c.Request.Context(), c.Param("id"), request.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.LogAdminAction(middleware.AdminID(c), "update_status", "booking", map[string]interface{}{
		"booking_id": booking.ID,
		"status":     request.Status,
	})
	utils.SuccessResponse(c, utils.MsgBookingUpdated, booking)
}

type rescheduleRequest struct {
	NewDate string `json:"new_date" binding:"required,isodate"`
}

// RescheduleBooking moves a booking to another date
func (h *AdminHandler) RescheduleBooking(c *gin.Context) {
	var request rescheduleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBindingError(c, err)
		return
	}

	booking, err := h.bookingService.ManualReschedule(c.Request.Context(), c.Param("id"), request.NewDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.LogAdminAction(middleware.AdminID(c), "reschedule", "booking", map[string]interface{}{
		"booking_id": booking.ID,
		"new_date":   request.NewDate,
		"trip_id":    booking.TripID,
	})
	utils.SuccessResponse(c, utils.MsgBookingRescheduled, booking)
}

func (h *AdminHandler) CancelBooking(c *gin.Context) {
	booking, err := h.bookingService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.LogAdminAction(middleware.AdminID(c), "cancel", "booking", map[string]interface{}{
		"booking_id": booking.ID,
	})
	utils.SuccessResponse(c, utils.MsgBookingCancelled, booking)
}

func (h *AdminHandler) DeleteBooking(c *gin.Context) {
	bookingID := c.Param("id")
	if err := h.bookingService.Delete(c.Request.Context(), bookingID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.LogAdminAction(middleware.AdminID(c), "delete", "booking", map[string]interface{}{
		"booking_id": bookingID,
	})
	utils.SuccessResponse(c, utils.MsgBookingDeleted, gin.H{"booking_id": bookingID})
}

type deleteRangeRequest struct {
	StartDate string `json:"start_date" binding:"required,isodate"`
	EndDate   string `json:"end_date" binding:"required,isodate"`
}

// DeleteBookingsInRange purges bookings whose intended date falls in the
// inclusive range and frees their seats
func (h *AdminHandler) DeleteBookingsInRange(c *gin.Context) {
	var request deleteRangeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBindingError(c, err)
		return
	}

	report, err := h.bookingService.DeleteInRange(c.Request.Context(), request.StartDate, request.EndDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.LogAdminAction(middleware.AdminID(c), "delete_range", "booking", map[string]interface{}{
		"start_date": request.StartDate,
		"end_date":   request.EndDate,
		"deleted":    report.BookingsDeleted,
	})
	utils.SuccessResponse(c, utils.MsgBookingDeleted, report)
}

// GetNotificationHistory returns the delivery log for a booking
func (h *AdminHandler) GetNotificationHistory(c *gin.Context) {
	history, err := h.notificationService.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Notification history retrieved successfully", history, &utils.Meta{Count: len(history)})
}

// Price rules

func (h *AdminHandler) ListPriceRules(c *gin.Context) {
	rules, err := h.capacityService.ListRules(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Price rules retrieved successfully", rules, &utils.Meta{Count: len(rules)})
}

func (h *AdminHandler) UpsertPriceRule(c *gin.Context) {
	var request services.PriceRuleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBindingError(c, err)
		return
	}

	rule, err := h.capacityService.UpsertRule(c.Request.Context(), &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.LogAdminAction(middleware.AdminID(c), "upsert", "price_rule", map[string]interface{}{
		"rule_id":       rule.ID,
		"fare":          rule.Fare,
		"vehicle_count": rule.VehicleCount,
	})
	utils.SuccessResponse(c, utils.MsgPriceRuleSaved, rule)
}

func (h *AdminHandler) DeletePriceRule(c *gin.Context) {
	ruleID := c.Param("id")
	if err := h.capacityService.DeleteRule(c.Request.Context(), ruleID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.LogAdminAction(middleware.AdminID(c), "delete", "price_rule", map[string]interface{}{
		"rule_id": ruleID,
	})
	utils.SuccessResponse(c, "Price rule deleted successfully", gin.H{"rule_id": ruleID})
}

// Trips

// GetSummary returns the dashboard counts and latest activity
func (h *AdminHandler) GetSummary(c *gin.Context) {
	summary, err := h.tripService.Summary(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Dashboard summary retrieved successfully", summary)
}

// ListTrips returns the trips running on ?date=
func (h *AdminHandler) ListTrips(c *gin.Context) {
	trips, err := h.tripService.ListByDate(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Trips retrieved successfully", trips, &utils.Meta{Count: len(trips)})
}

func (h *AdminHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Trip retrieved successfully", trip)
}

// Settings

func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Settings retrieved successfully", settings)
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var request services.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBindingError(c, err)
		return
	}

	before, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	after, err := h.settingsService.Update(c.Request.Context(), &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.LogSettingsChange(middleware.AdminID(c), before, after)
	utils.SuccessResponse(c, utils.MsgSettingsUpdated, after)
}

// Sweeps

func (h *AdminHandler) RunCleanup(c *gin.Context) {
	report, err := h.sweepService.RunCleanup(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.LogAdminAction(middleware.AdminID(c), "run_sweep", "cleanup", nil)
	utils.SuccessResponse(c, utils.MsgSweepCompleted, report)
}

func (h *AdminHandler) RunReschedule(c *gin.Context) {
	report, err := h.sweepService.RunReschedule(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.LogAdminAction(middleware.AdminID(c), "run_sweep", "reschedule", nil)
	utils.SuccessResponse(c, utils.MsgSweepCompleted, report)
}

// ListSweepReports lists archived reports for :kind
func (h *AdminHandler) ListSweepReports(c *gin.Context) {
	kind := models.SweepKind(c.Param("kind"))
	if kind != models.SweepKindCleanup && kind != models.SweepKindReschedule {
		utils.NotFoundResponse(c, "Sweep kind")
		return
	}

	files, err := h.sweepService.ListReports(c.Request.Context(), kind)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Sweep reports retrieved successfully", files, &utils.Meta{Count: len(files)})
}

// GetSweepReport streams an archived report identified by ?key=
func (h *AdminHandler) GetSweepReport(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		utils.BadRequestResponse(c, "key is required")
		return
	}

	data, err := h.sweepService.GetReport(c.Request.Context(), key)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}
