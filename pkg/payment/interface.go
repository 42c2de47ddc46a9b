package payment

import (
	"context"
	"errors"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// MetadataBookingID is the metadata key that ties a payment to its booking.
const MetadataBookingID = "booking_id"

// CheckoutGateway is a hosted checkout provider: the rider is redirected to
// the provider and returns with a reference the server verifies.
type CheckoutGateway interface {
	Name() string
	Initialize(ctx context.Context, request *CheckoutRequest) (*CheckoutSession, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

// WebhookVerifier authenticates provider callbacks.
type WebhookVerifier interface {
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type CheckoutRequest struct {
	AmountMinor int64             `json:"amount_minor"`
	Currency    string            `json:"currency"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

type CheckoutSession struct {
	Reference   string `json:"reference"`
	RedirectURL string `json:"redirect_url"`
}

type VerifyResult struct {
	Reference   string            `json:"reference"`
	Success     bool              `json:"success"`
	Status      string            `json:"status"`
	AmountMinor int64             `json:"amount_minor"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`
}

type WebhookEvent struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	Reference string            `json:"reference"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt int64             `json:"created_at"`
}
