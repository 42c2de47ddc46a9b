package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/razorpay/razorpay-go"
	"github.com/tidwall/gjson"
)

// EventPaymentLinkPaid is sent once a payment link is settled.
const EventPaymentLinkPaid = "payment_link.paid"

// RazorpayCheckout uses payment links as the hosted checkout page.
type RazorpayCheckout struct {
	client        *razorpay.Client
	webhookSecret string
	callbackURL   string
}

func NewRazorpayCheckout(keyID, keySecret, webhookSecret, callbackURL string) *RazorpayCheckout {
	return &RazorpayCheckout{
		client:        razorpay.NewClient(keyID, keySecret),
		webhookSecret: webhookSecret,
		callbackURL:   callbackURL,
	}
}

func (r *RazorpayCheckout) Name() string { return "razorpay" }

func (r *RazorpayCheckout) Initialize(ctx context.Context, request *CheckoutRequest) (*CheckoutSession, error) {
	notes := make(map[string]interface{}, len(request.Metadata))
	for key, value := range request.Metadata {
		notes[key] = value
	}

	data := map[string]interface{}{
		"amount":          request.AmountMinor,
		"currency":        request.Currency,
		"description":     request.Description,
		"reference_id":    request.Metadata[MetadataBookingID],
		"callback_url":    r.callbackURL,
		"callback_method": "get",
		"customer": map[string]interface{}{
			"name":  request.Name,
			"email": request.Email,
		},
		"notes": notes,
	}

	link, err := r.client.PaymentLink.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment link: %w", err)
	}

	raw := toJSON(link)
	return &CheckoutSession{
		Reference:   gjson.GetBytes(raw, "id").String(),
		RedirectURL: gjson.GetBytes(raw, "short_url").String(),
	}, nil
}

func (r *RazorpayCheckout) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	link, err := r.client.PaymentLink.Fetch(reference, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment link: %w", err)
	}

	raw := toJSON(link)
	status := gjson.GetBytes(raw, "status").String()
	metadata := make(map[string]string)
	gjson.GetBytes(raw, "notes").ForEach(func(key, value gjson.Result) bool {
		metadata[key.String()] = value.String()
		return true
	})

	return &VerifyResult{
		Reference:   reference,
		Success:     status == "paid",
		Status:      status,
		AmountMinor: gjson.GetBytes(raw, "amount_paid").Int(),
		Currency:    gjson.GetBytes(raw, "currency").String(),
		Metadata:    metadata,
	}, nil
}

func (r *RazorpayCheckout) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if !hmac.Equal([]byte(signature), []byte(r.generateSignature(payload))) {
		return nil, ErrInvalidSignature
	}

	link := gjson.GetBytes(payload, "payload.payment_link.entity")
	metadata := make(map[string]string)
	link.Get("notes").ForEach(func(key, value gjson.Result) bool {
		metadata[key.String()] = value.String()
		return true
	})

	return &WebhookEvent{
		EventID:   gjson.GetBytes(payload, "id").String(),
		EventType: gjson.GetBytes(payload, "event").String(),
		Reference: link.Get("id").String(),
		Metadata:  metadata,
		CreatedAt: gjson.GetBytes(payload, "created_at").Int(),
	}, nil
}

func (r *RazorpayCheckout) generateSignature(payload []byte) string {
	h := hmac.New(sha256.New, []byte(r.webhookSecret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func toJSON(v map[string]interface{}) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
