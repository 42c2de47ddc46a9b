package handlers

import (
	"errors"

	"shuttle/internal/models"
	"shuttle/internal/services"
	"shuttle/internal/utils"
	"shuttle/internal/validators"
	"shuttle/pkg/logger"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves the rider-facing booking form.
type BookingHandler struct {
	bookingService      services.BookingService
	availabilityService services.AvailabilityService
	logger              *logger.Logger
}

func NewBookingHandler(bookingService services.BookingService, availabilityService services.AvailabilityService, logger *logger.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService:      bookingService,
		availabilityService: availabilityService,
		logger:              logger,
	}
}

type availabilityQuery struct {
	PickupLocation string `form:"pickup_location" binding:"required,location"`
	Destination    string `form:"destination" binding:"required,location"`
	VehicleType    string `form:"vehicle_type" binding:"required,vehicletype"`
	Date           string `form:"date" binding:"required,isodate"`
}

// GetAvailability returns the seat summary for a route and date
func (h *BookingHandler) GetAvailability(c *gin.Context) {
	var query availabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindingError(c, err)
		return
	}

	route := models.Route{
		PickupLocation: query.PickupLocation,
		Destination:    query.Destination,
		VehicleType:    query.VehicleType,
	}
	availability, err := h.availabilityService.GetAvailability(c.Request.Context(), route, query.Date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, utils.MsgAvailability, availability)
}

// CreateBooking stores the booking, seats it and opens a checkout when
// online payment is enabled.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var request services.CreateBookingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBindingError(c, err)
		return
	}
	request.FullName = validators.SanitizeInput(request.FullName)

	result, err := h.bookingService.InitializeCheckout(c.Request.Context(), &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, utils.MsgBookingCreated, result)
}

// GetBooking returns a single booking
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, utils.MsgBookingRetrieved, booking)
}

// CancelBooking cancels the booking and frees its seat
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	booking, err := h.bookingService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, utils.MsgBookingCancelled, booking)
}

// RequestRefund forwards a refund request for a cancelled booking to the operator
func (h *BookingHandler) RequestRefund(c *gin.Context) {
	err := h.bookingService.RequestRefund(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrExternalService) {
			h.logger.WithError(err).WithBookingID(c.Param("id")).Warn("Refund request could not be delivered")
		}
		respondError(c, h.logger, err)
		return
	}

	utils.AcceptedResponse(c, utils.MsgRefundRequested, gin.H{"booking_id": c.Param("id")})
}
