package handlers

import (
	"errors"
	"io"
	"net/http"

	"shuttle/internal/services"
	"shuttle/internal/utils"
	"shuttle/pkg/logger"
	"shuttle/pkg/payment"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

// Webhook describes how one provider signs its callbacks and which event
// marks a completed checkout.
type Webhook struct {
	Verifier        payment.WebhookVerifier
	SignatureHeader string
	CompletedEvent  string
}

// PaymentHandler settles bookings from the checkout return leg and from
// provider webhooks.
type PaymentHandler struct {
	bookingService services.BookingService
	webhooks       map[string]Webhook
	logger         *logger.Logger
}

func NewPaymentHandler(bookingService services.BookingService, webhooks map[string]Webhook, logger *logger.Logger) *PaymentHandler {
	if webhooks == nil {
		webhooks = map[string]Webhook{}
	}
	return &PaymentHandler{
		bookingService: bookingService,
		webhooks:       webhooks,
		logger:         logger,
	}
}

// Callback verifies the reference the rider returns with
func (h *PaymentHandler) Callback(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		utils.BadRequestResponse(c, "reference is required")
		return
	}

	booking, err := h.bookingService.VerifyPayment(c.Request.Context(), reference)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, utils.MsgPaymentVerified, booking)
}

// HandleWebhook authenticates a provider event and verifies the payment it
// announces. Events other than a completed checkout are acknowledged and
// ignored.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	provider := c.Param("provider")
	webhook, ok := h.webhooks[provider]
	if !ok {
		utils.NotFoundResponse(c, "Webhook")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read request body")
		return
	}

	event, err := webhook.Verifier.ParseWebhook(payload, c.GetHeader(webhook.SignatureHeader))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			h.logger.WithField("provider", provider).Warn("Rejected webhook with invalid signature")
			utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature verification failed")
			return
		}
		utils.BadRequestResponse(c, "Invalid webhook payload")
		return
	}

	log := h.logger.WithFields(map[string]interface{}{
		"provider":   provider,
		"event_id":   event.EventID,
		"event_type": event.EventType,
	})

	if event.EventType != webhook.CompletedEvent {
		log.Debug("Ignoring webhook event")
		utils.SuccessResponse(c, "Event ignored", gin.H{"event_id": event.EventID})
		return
	}

	booking, err := h.bookingService.VerifyPayment(c.Request.Context(), event.Reference)
	if err != nil {
		log.WithError(err).Warn("Webhook payment verification failed")
		respondError(c, h.logger, err)
		return
	}

	log.WithBookingID(booking.ID).Info("Webhook settled booking")
	utils.SuccessResponse(c, utils.MsgPaymentVerified, gin.H{"booking_id": booking.ID, "status": booking.Status})
}
