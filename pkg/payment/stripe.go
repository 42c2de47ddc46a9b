package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/tidwall/gjson"
)

// EventCheckoutCompleted is the Stripe event that carries a paid session.
const EventCheckoutCompleted = "checkout.session.completed"

type StripeCheckout struct {
	client        *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
}

// NewStripeCheckout builds a Checkout Session gateway. successURL receives
// the session id as its reference query parameter.
func NewStripeCheckout(secretKey, webhookSecret, successURL, cancelURL string) *StripeCheckout {
	sc := &client.API{}
	sc.Init(secretKey, nil)

	return &StripeCheckout{
		client:        sc,
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

func (s *StripeCheckout) Name() string { return "stripe" }

func (s *StripeCheckout) Initialize(ctx context.Context, request *CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(withReference(s.successURL, "{CHECKOUT_SESSION_ID}")),
		CancelURL:     stripe.String(s.cancelURL),
		CustomerEmail: stripe.String(request.Email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(request.Currency)),
					UnitAmount: stripe.Int64(request.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(request.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	if id, ok := request.Metadata[MetadataBookingID]; ok {
		params.ClientReferenceID = stripe.String(id)
	}
	for key, value := range request.Metadata {
		params.AddMetadata(key, value)
	}

	session, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSession{
		Reference:   session.ID,
		RedirectURL: session.URL,
	}, nil
}

func (s *StripeCheckout) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := s.client.CheckoutSessions.Get(reference, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkout session: %w", err)
	}

	return &VerifyResult{
		Reference:   session.ID,
		Success:     session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Status:      string(session.PaymentStatus),
		AmountMinor: session.AmountTotal,
		Currency:    strings.ToUpper(string(session.Currency)),
		Metadata:    session.Metadata,
	}, nil
}

// ParseWebhook checks the Stripe-Signature header and extracts the session
// id and metadata from the event object.
func (s *StripeCheckout) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	object := gjson.GetBytes(payload, "data.object")
	metadata := make(map[string]string)
	object.Get("metadata").ForEach(func(key, value gjson.Result) bool {
		metadata[key.String()] = value.String()
		return true
	})
	if _, ok := metadata[MetadataBookingID]; !ok {
		if ref := object.Get("client_reference_id").String(); ref != "" {
			metadata[MetadataBookingID] = ref
		}
	}

	return &WebhookEvent{
		EventID:   event.ID,
		EventType: string(event.Type),
		Reference: object.Get("id").String(),
		Metadata:  metadata,
		CreatedAt: event.Created,
	}, nil
}

func withReference(url, reference string) string {
	separator := "?"
	if strings.Contains(url, "?") {
		separator = "&"
	}
	return url + separator + "reference=" + reference
}
