package handlers

import (
	"errors"
	"net/http"

	"shuttle/internal/services"
	"shuttle/internal/utils"
	"shuttle/internal/validators"
	"shuttle/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto the API envelope.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, services.ErrConfiguration):
		utils.UnprocessableResponse(c, "ROUTE_UNAVAILABLE", utils.ErrRouteUnavailable)
	case errors.Is(err, services.ErrCapacityExceeded):
		utils.ConflictResponse(c, "TRIP_FULL", utils.ErrTripFull)
	case errors.Is(err, services.ErrBookingNotFound):
		utils.NotFoundResponse(c, "Booking")
	case errors.Is(err, services.ErrTripNotFound):
		utils.NotFoundResponse(c, "Trip")
	case errors.Is(err, services.ErrPriceRuleNotFound):
		utils.NotFoundResponse(c, "Price rule")
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, "Resource")
	case errors.Is(err, services.ErrInvalidTransition):
		utils.ConflictResponse(c, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, services.ErrRefundNotAllowed):
		utils.ConflictResponse(c, "REFUND_NOT_ALLOWED", err.Error())
	case errors.Is(err, services.ErrPaymentNotSuccessful):
		utils.ErrorResponse(c, http.StatusPaymentRequired, "PAYMENT_NOT_SUCCESSFUL", err.Error())
	case errors.Is(err, services.ErrPaymentsDisabled):
		utils.ConflictResponse(c, "PAYMENTS_DISABLED", err.Error())
	case errors.Is(err, services.ErrSweepInProgress):
		utils.ConflictResponse(c, "SWEEP_IN_PROGRESS", err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, "CONFLICT", "The resource was modified concurrently, please retry")
	case errors.Is(err, services.ErrExternalService):
		log.WithError(err).WithRequestID(c.GetString(utils.ContextKeyRequestID)).Error("External service failure")
		utils.BadGatewayResponse(c, "An upstream service failed, please retry shortly")
	default:
		log.WithError(err).WithRequestID(c.GetString(utils.ContextKeyRequestID)).Error("Unhandled request error")
		utils.InternalServerErrorResponse(c)
	}
}

// respondBindingError reports field errors when binding failed validation
// and a plain 400 otherwise.
func respondBindingError(c *gin.Context, err error) {
	if fieldErrors := validators.FromBindingError(err); fieldErrors != nil {
		utils.ValidationErrorResponse(c, fieldErrors.Details())
		return
	}
	utils.BadRequestResponse(c, "Invalid request: "+err.Error())
}
