package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"shuttle/internal/middleware"
	"shuttle/internal/models"
	"shuttle/internal/repositories/memory"
	"shuttle/internal/services"
	"shuttle/internal/validators"
	"shuttle/pkg/cache"
	"shuttle/pkg/logger"
	"shuttle/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// testNow is the fixed instant every service in the test server reads.
var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

const (
	testDate    = "2026-03-10"
	testSecret  = "test-secret"
	testIssuer  = "shuttle-test"
	testAdminID = "ops"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validators.RegisterWithGin(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type recordingChannel struct {
	mu   sync.Mutex
	sent []*models.Notification
}

func (c *recordingChannel) Name() string { return "test" }

func (c *recordingChannel) Accepts(recipient models.Recipient) bool { return recipient.Email != "" }

func (c *recordingChannel) Deliver(ctx context.Context, notification *models.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, notification)
	return nil
}

func (c *recordingChannel) count(kind models.NotificationKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.sent {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

type stubGateway struct {
	mu      sync.Mutex
	results map[string]*payment.VerifyResult
}

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) Initialize(ctx context.Context, request *payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	ref := "ref_" + request.Metadata[payment.MetadataBookingID]
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results[ref] = &payment.VerifyResult{
		Reference: ref,
		Success:   true,
		Status:    "paid",
		Metadata:  request.Metadata,
	}
	return &payment.CheckoutSession{Reference: ref, RedirectURL: "https://pay.example.com/" + ref}, nil
}

func (g *stubGateway) Verify(ctx context.Context, reference string) (*payment.VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	result, ok := g.results[reference]
	if !ok {
		return nil, errors.New("unknown reference")
	}
	return result, nil
}

// stubVerifier accepts payloads signed with "valid" and reads the event
// type and reference straight from the JSON body.
type stubVerifier struct{}

func (stubVerifier) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	if signature != "valid" {
		return nil, payment.ErrInvalidSignature
	}
	var body struct {
		ID        string `json:"id"`
		Type      string `json:"type"`
		Reference string `json:"reference"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	return &payment.WebhookEvent{EventID: body.ID, EventType: body.Type, Reference: body.Reference}, nil
}

type testServer struct {
	router   *gin.Engine
	channel  *recordingChannel
	gateway  *stubGateway
	bookings services.BookingService
	capacity services.RouteCapacityService
	notifier services.NotificationService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logger.NewNop()
	store := memory.NewStore()
	tx := memory.NewTxRunner(store, 5)
	bookingRepo := memory.NewBookingRepository(store)
	tripRepo := memory.NewTripRepository(store)

	channel := &recordingChannel{}
	gateway := &stubGateway{results: make(map[string]*payment.VerifyResult)}

	notifier := services.NewNotificationService([]services.NotificationChannel{channel},
		memory.NewNotificationRepository(store), models.Recipient{Name: "Operator", Email: "ops@example.com"}, time.Second, log)
	capacity := services.NewRouteCapacityService(memory.NewPriceRuleRepository(store), log)
	availability := services.NewAvailabilityService(tripRepo, capacity, cache.NewMemoryCache(), 30*time.Second, log)
	confirmation := services.NewTripConfirmationService(tripRepo, bookingRepo, notifier, log)
	assignment := services.NewTripAssignmentService(tx, tripRepo, bookingRepo, capacity, confirmation, availability, notifier, models.DefaultHoldDuration, log)
	cleanup := services.NewCleanupService(tx, tripRepo, availability, log)
	reschedule := services.NewRescheduleService(tx, tripRepo, bookingRepo, assignment, notifier, time.UTC, log)
	settings := services.NewSettingsService(memory.NewSettingsRepository(store), models.Settings{PaymentEnabled: true}, log)
	bookings := services.NewBookingService(tx, bookingRepo, tripRepo, capacity, assignment, confirmation, cleanup,
		availability, notifier, settings, gateway, services.BookingServiceConfig{LuggageFare: 500, Currency: "NGN", Location: time.UTC}, log)
	sweeps := services.NewSweepService(cleanup, reschedule, cache.NewMemoryCache(), nil, "sweeps", log)
	trips := services.NewTripService(tripRepo, bookingRepo, time.UTC)

	services.SetClock(func() time.Time { return testNow },
		notifier, capacity, availability, assignment, cleanup, reschedule, settings, bookings, sweeps, trips)

	bookingHandler := NewBookingHandler(bookings, availability, log)
	paymentHandler := NewPaymentHandler(bookings, map[string]Webhook{
		"stripe": {Verifier: stubVerifier{}, SignatureHeader: "Stripe-Signature", CompletedEvent: payment.EventCheckoutCompleted},
	}, log)
	adminHandler := NewAdminHandler(bookings, capacity, trips, settings, sweeps, notifier, log)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	v1 := r.Group("/api/v1")
	v1.GET("/availability", bookingHandler.GetAvailability)
	v1.POST("/bookings", bookingHandler.CreateBooking)
	v1.GET("/bookings/:id", bookingHandler.GetBooking)
	v1.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)
	v1.POST("/bookings/:id/refund-request", bookingHandler.RequestRefund)
	v1.GET("/payments/callback", paymentHandler.Callback)
	v1.POST("/webhooks/:provider", paymentHandler.HandleWebhook)

	admin := v1.Group("/admin")
	admin.Use(func(c *gin.Context) { c.Set("admin_id", testAdminID) })
	admin.GET("/summary", adminHandler.GetSummary)
	admin.GET("/bookings", adminHandler.ListBookings)
	admin.POST("/bookings/delete-range", adminHandler.DeleteBookingsInRange)
	admin.GET("/bookings/:id", adminHandler.GetBooking)
	admin.PUT("/bookings/:id/status", adminHandler.UpdateBookingStatus)
	admin.POST("/bookings/:id/reschedule", adminHandler.RescheduleBooking)
	admin.DELETE("/bookings/:id", adminHandler.DeleteBooking)
	admin.GET("/bookings/:id/notifications", adminHandler.GetNotificationHistory)
	admin.GET("/prices", adminHandler.ListPriceRules)
	admin.PUT("/prices", adminHandler.UpsertPriceRule)
	admin.DELETE("/prices/:id", adminHandler.DeletePriceRule)
	admin.GET("/trips", adminHandler.ListTrips)
	admin.GET("/trips/:id", adminHandler.GetTrip)
	admin.GET("/settings", adminHandler.GetSettings)
	admin.PUT("/settings", adminHandler.UpdateSettings)
	admin.POST("/sweeps/cleanup", adminHandler.RunCleanup)
	admin.GET("/sweeps/:kind/reports", adminHandler.ListSweepReports)

	return &testServer{
		router:   r,
		channel:  channel,
		gateway:  gateway,
		bookings: bookings,
		capacity: capacity,
		notifier: notifier,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) seedRule(t *testing.T, vehicleCount int) {
	t.Helper()
	_, err := s.capacity.UpsertRule(context.Background(), &services.PriceRuleRequest{
		PickupLocation: "Abeokuta",
		Destination:    "Ibadan",
		VehicleType:    "4-Seater Sienna",
		Fare:           5000,
		VehicleCount:   vehicleCount,
	})
	require.NoError(t, err)
}

func bookingBody(name string) map[string]interface{} {
	return map[string]interface{}{
		"full_name":        name,
		"email":            name + "@example.com",
		"phone":            "+2348000000001",
		"pickup_location":  "Abeokuta",
		"destination":      "Ibadan",
		"intended_date":    testDate,
		"vehicle_type":     "4-Seater Sienna",
		"luggage_count":    1,
		"allow_reschedule": true,
	}
}
