package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/internal/repositories/memory"
	"shuttle/internal/utils"
	"shuttle/pkg/cache"
	"shuttle/pkg/logger"
	"shuttle/pkg/payment"

	"github.com/stretchr/testify/require"
)

const (
	testPickup      = "Abeokuta"
	testDestination = "Ibadan"
	testVehicle     = "4-Seater Sienna"
	testDate        = "2026-03-10"
)

var testRouteKey = utils.RouteKey(testPickup, testDestination, testVehicle)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentNotification struct {
	Kind      models.NotificationKind
	Recipient models.Recipient
	Payload   map[string]interface{}
}

// recordingNotifier delivers synchronously so tests can assert right away.
type recordingNotifier struct {
	mu      sync.Mutex
	sent    []sentNotification
	failErr error
}

func (n *recordingNotifier) Notify(ctx context.Context, kind models.NotificationKind, recipient models.Recipient, payload map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{Kind: kind, Recipient: recipient, Payload: payload})
	return n.failErr
}

func (n *recordingNotifier) Dispatch(ctx context.Context, kind models.NotificationKind, recipient models.Recipient, payload map[string]interface{}) {
	_ = n.Notify(ctx, kind, recipient, payload)
}

func (n *recordingNotifier) Operator() models.Recipient {
	return models.Recipient{Name: "Operator", Email: "ops@example.com"}
}

func (n *recordingNotifier) History(ctx context.Context, bookingID string) ([]*models.NotificationLog, error) {
	return nil, nil
}

func (n *recordingNotifier) Wait() {}

func (n *recordingNotifier) count(kind models.NotificationKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, s := range n.sent {
		if s.Kind == kind {
			count++
		}
	}
	return count
}

func (n *recordingNotifier) last(kind models.NotificationKind) (sentNotification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Kind == kind {
			return n.sent[i], true
		}
	}
	return sentNotification{}, false
}

type fakeGateway struct {
	mu          sync.Mutex
	initialized []*payment.CheckoutRequest
	initErr     error
	results     map[string]*payment.VerifyResult
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{results: make(map[string]*payment.VerifyResult)}
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) Initialize(ctx context.Context, request *payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.initErr != nil {
		return nil, g.initErr
	}
	g.initialized = append(g.initialized, request)
	ref := "ref_" + request.Metadata[payment.MetadataBookingID]
	return &payment.CheckoutSession{Reference: ref, RedirectURL: "https://pay.example.com/" + ref}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (*payment.VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	result, ok := g.results[reference]
	if !ok {
		return nil, errors.New("unknown reference")
	}
	return result, nil
}

type fixture struct {
	ctx   context.Context
	clock *testClock
	store *memory.Store
	cache *cache.MemoryCache

	bookings interfaces.BookingRepository
	trips    interfaces.TripRepository
	prices   interfaces.PriceRuleRepository

	notifier *recordingNotifier
	gateway  *fakeGateway

	capacity     RouteCapacityService
	availability AvailabilityService
	confirmation TripConfirmationService
	assignment   TripAssignmentService
	cleanup      CleanupService
	reschedule   RescheduleService
	settings     SettingsService
	booking      BookingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	lagos, err := time.LoadLocation("Africa/Lagos")
	require.NoError(t, err)

	log := logger.NewNop()
	store := memory.NewStore()
	tx := memory.NewTxRunner(store, 5)

	f := &fixture{
		ctx:      context.Background(),
		clock:    newTestClock(time.Date(2026, 3, 10, 9, 0, 0, 0, lagos)),
		store:    store,
		cache:    cache.NewMemoryCache(),
		bookings: memory.NewBookingRepository(store),
		trips:    memory.NewTripRepository(store),
		prices:   memory.NewPriceRuleRepository(store),
		notifier: &recordingNotifier{},
		gateway:  newFakeGateway(),
	}

	f.capacity = NewRouteCapacityService(f.prices, log)
	f.availability = NewAvailabilityService(f.trips, f.capacity, f.cache, 30*time.Second, log)
	f.confirmation = NewTripConfirmationService(f.trips, f.bookings, f.notifier, log)
	f.assignment = NewTripAssignmentService(tx, f.trips, f.bookings, f.capacity, f.confirmation, f.availability, f.notifier, models.DefaultHoldDuration, log)
	f.cleanup = NewCleanupService(tx, f.trips, f.availability, log)
	f.reschedule = NewRescheduleService(tx, f.trips, f.bookings, f.assignment, f.notifier, lagos, log)
	f.settings = NewSettingsService(memory.NewSettingsRepository(store), models.Settings{PaymentEnabled: true}, log)
	f.booking = NewBookingService(tx, f.bookings, f.trips, f.capacity, f.assignment, f.confirmation, f.cleanup,
		f.availability, f.notifier, f.settings, f.gateway,
		BookingServiceConfig{LuggageFare: 500, Currency: "NGN", Location: lagos}, log)

	f.availability.(*availabilityService).now = f.clock.Now
	f.assignment.(*tripAssignmentService).now = f.clock.Now
	f.cleanup.(*cleanupService).now = f.clock.Now
	f.reschedule.(*rescheduleService).now = f.clock.Now
	f.booking.(*bookingService).now = f.clock.Now

	return f
}

func (f *fixture) seedRule(t *testing.T, vehicleType string, vehicleCount int, fare float64) {
	t.Helper()
	_, err := f.capacity.UpsertRule(f.ctx, &PriceRuleRequest{
		PickupLocation: testPickup,
		Destination:    testDestination,
		VehicleType:    vehicleType,
		Fare:           fare,
		VehicleCount:   vehicleCount,
	})
	require.NoError(t, err)
}

// newBooking stores a booking directly, bypassing intake.
func (f *fixture) newBooking(t *testing.T, name string, status models.BookingStatus) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ID:              name + "-booking",
		FullName:        name,
		Email:           name + "@example.com",
		Phone:           "+2348000000000",
		PickupLocation:  testPickup,
		Destination:     testDestination,
		IntendedDate:    testDate,
		VehicleType:     testVehicle,
		AllowReschedule: true,
		Status:          status,
		CreatedAt:       f.clock.Now(),
	}
	require.NoError(t, f.bookings.Create(f.ctx, b))
	return b
}

func (f *fixture) assignNew(t *testing.T, name string, status models.BookingStatus) *models.Booking {
	t.Helper()
	b := f.newBooking(t, name, status)
	_, err := f.assignment.Assign(f.ctx, b)
	require.NoError(t, err)
	return b
}

func (f *fixture) getBooking(t *testing.T, id string) *models.Booking {
	t.Helper()
	b, err := f.bookings.GetByID(f.ctx, id)
	require.NoError(t, err)
	return b
}

func (f *fixture) getTrip(t *testing.T, id string) *models.Trip {
	t.Helper()
	trip, err := f.trips.GetByID(f.ctx, id)
	require.NoError(t, err)
	return trip
}

func (f *fixture) createRequest(name string) *CreateBookingRequest {
	return &CreateBookingRequest{
		FullName:        name,
		Email:           name + "@example.com",
		Phone:           "+2348000000001",
		PickupLocation:  testPickup,
		Destination:     testDestination,
		IntendedDate:    testDate,
		VehicleType:     testVehicle,
		AllowReschedule: true,
	}
}

func seatFor(trip *models.Trip, bookingID string) (models.SeatEntry, bool) {
	for _, seat := range trip.Passengers {
		if seat.BookingID == bookingID {
			return seat, true
		}
	}
	return models.SeatEntry{}, false
}
