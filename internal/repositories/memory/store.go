// Package memory is an in-process document store with the same transaction
// contract as the Mongo repositories. It backs tests and DB_DRIVER=memory.
package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
)

type txKey struct{}

// Store holds every collection behind one mutex. A transaction holds the
// mutex for its whole duration, so transactions are serializable, and a
// failed transaction restores the snapshot taken when it began.
type Store struct {
	mu            sync.Mutex
	bookings      map[string]models.Booking
	trips         map[string]models.Trip
	prices        map[string]models.PriceRule
	settings      *models.Settings
	notifications []models.NotificationLog
	writes        atomic.Int64
}

func NewStore() *Store {
	return &Store{
		bookings: make(map[string]models.Booking),
		trips:    make(map[string]models.Trip),
		prices:   make(map[string]models.PriceRule),
	}
}

// Writes counts committed and uncommitted mutations since creation.
func (s *Store) Writes() int64 {
	return s.writes.Load()
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the store mutex unless ctx already belongs to a transaction
// on this store.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) wrote() {
	s.writes.Add(1)
}

type snapshot struct {
	bookings      map[string]models.Booking
	trips         map[string]models.Trip
	prices        map[string]models.PriceRule
	settings      *models.Settings
	notifications []models.NotificationLog
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		bookings:      make(map[string]models.Booking, len(s.bookings)),
		trips:         make(map[string]models.Trip, len(s.trips)),
		prices:        make(map[string]models.PriceRule, len(s.prices)),
		notifications: append([]models.NotificationLog(nil), s.notifications...),
	}
	for k, v := range s.bookings {
		snap.bookings[k] = v
	}
	for k, v := range s.trips {
		snap.trips[k] = cloneTrip(v)
	}
	for k, v := range s.prices {
		snap.prices[k] = v
	}
	if s.settings != nil {
		settings := *s.settings
		snap.settings = &settings
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.bookings = snap.bookings
	s.trips = snap.trips
	s.prices = snap.prices
	s.settings = snap.settings
	s.notifications = snap.notifications
}

type txRunner struct {
	store      *Store
	maxRetries int
}

// NewTxRunner returns a TxRunner over store that retries ErrConflict up to
// maxRetries attempts in total.
func NewTxRunner(store *Store, maxRetries int) interfaces.TxRunner {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &txRunner{store: store, maxRetries: maxRetries}
}

func (t *txRunner) WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	var err error
	for attempt := 0; attempt < t.maxRetries; attempt++ {
		err = t.store.transaction(ctx, fn)
		if err == nil || !errors.Is(err, interfaces.ErrConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

func (s *Store) transaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func cloneTrip(t models.Trip) models.Trip {
	passengers := make([]models.SeatEntry, len(t.Passengers))
	for i, p := range t.Passengers {
		if p.HeldUntil != nil {
			heldUntil := *p.HeldUntil
			p.HeldUntil = &heldUntil
		}
		passengers[i] = p
	}
	t.Passengers = passengers
	return t
}
