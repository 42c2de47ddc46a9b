package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/internal/utils"
)

type bookingRepository struct {
	store *Store
}

func NewBookingRepository(store *Store) interfaces.BookingRepository {
	return &bookingRepository{store: store}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	defer r.store.lock(ctx)()

	if _, exists := r.store.bookings[booking.ID]; exists {
		return fmt.Errorf("booking %s already exists: %w", booking.ID, interfaces.ErrConflict)
	}

	now := time.Now()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now
	r.store.bookings[booking.ID] = *booking
	r.store.wrote()
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	defer r.store.lock(ctx)()

	booking, ok := r.store.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, interfaces.ErrNotFound)
	}
	return &booking, nil
}

func (r *bookingRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Booking, error) {
	defer r.store.lock(ctx)()

	bookings := make([]*models.Booking, 0, len(ids))
	for _, id := range ids {
		if booking, ok := r.store.bookings[id]; ok {
			bookings = append(bookings, &booking)
		}
	}
	return bookings, nil
}

func (r *bookingRepository) Delete(ctx context.Context, id string) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.bookings[id]; !ok {
		return fmt.Errorf("booking %s: %w", id, interfaces.ErrNotFound)
	}
	delete(r.store.bookings, id)
	r.store.wrote()
	return nil
}

func (r *bookingRepository) List(ctx context.Context, filter *models.BookingFilter, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	defer r.store.lock(ctx)()

	if params == nil {
		params = utils.DefaultPagination()
	}

	matched := make([]*models.Booking, 0)
	for _, booking := range r.store.bookings {
		if matchesFilter(&booking, filter) {
			b := booking
			matched = append(matched, &b)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		less := lessBooking(matched[i], matched[j], params.Sort)
		if params.Order == "asc" {
			return less
		}
		return lessBooking(matched[j], matched[i], params.Sort)
	})

	start, end := params.Window(len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (r *bookingRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	defer r.store.lock(ctx)()

	bookings := make([]*models.Booking, 0)
	for _, booking := range r.store.bookings {
		if booking.CreatedAt.Before(start) || booking.CreatedAt.After(end) {
			continue
		}
		b := booking
		bookings = append(bookings, &b)
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
	})
	return bookings, nil
}

func (r *bookingRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	defer r.store.lock(ctx)()

	var deleted int64
	for _, id := range ids {
		if _, ok := r.store.bookings[id]; ok {
			delete(r.store.bookings, id)
			deleted++
		}
	}
	if deleted > 0 {
		r.store.wrote()
	}
	return deleted, nil
}

func (r *bookingRepository) SetTrip(ctx context.Context, id, tripID string) error {
	defer r.store.lock(ctx)()

	booking, ok := r.store.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s: %w", id, interfaces.ErrNotFound)
	}
	if !booking.Status.HoldsSeat() {
		return fmt.Errorf("booking %s is %s: %w", id, booking.Status, interfaces.ErrConflict)
	}
	booking.TripID = tripID
	booking.UpdatedAt = time.Now()
	r.store.bookings[id] = booking
	r.store.wrote()
	return nil
}

func (r *bookingRepository) ClearTrip(ctx context.Context, id string) error {
	return r.mutate(ctx, id, func(b *models.Booking) {
		b.TripID = ""
	})
}

func (r *bookingRepository) PrepareReschedule(ctx context.Context, id, newDate string) error {
	return r.mutate(ctx, id, func(b *models.Booking) {
		b.TripID = ""
		b.IntendedDate = newDate
		b.RescheduledCount++
	})
}

func (r *bookingRepository) TransitionStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus, update *models.BookingStatusUpdate) (bool, error) {
	defer r.store.lock(ctx)()

	booking, ok := r.store.bookings[id]
	if !ok {
		return false, nil
	}

	allowed := false
	for _, status := range from {
		if booking.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}

	booking.Status = to
	if update != nil {
		if update.PaymentReference != "" {
			booking.PaymentReference = update.PaymentReference
		}
		if update.ConfirmedDate != "" {
			booking.ConfirmedDate = update.ConfirmedDate
		}
	}
	booking.UpdatedAt = time.Now()
	r.store.bookings[id] = booking
	r.store.wrote()
	return true, nil
}

func (r *bookingRepository) mutate(ctx context.Context, id string, fn func(b *models.Booking)) error {
	defer r.store.lock(ctx)()

	booking, ok := r.store.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s: %w", id, interfaces.ErrNotFound)
	}
	fn(&booking)
	booking.UpdatedAt = time.Now()
	r.store.bookings[id] = booking
	r.store.wrote()
	return nil
}

func matchesFilter(b *models.Booking, filter *models.BookingFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Status != "" && b.Status != filter.Status {
		return false
	}
	if filter.IntendedDate != "" && b.IntendedDate != filter.IntendedDate {
		return false
	}
	if filter.TripID != "" && b.TripID != filter.TripID {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		haystack := strings.ToLower(strings.Join([]string{b.ID, b.FullName, b.Email, b.Phone}, " "))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

func lessBooking(a, b *models.Booking, field string) bool {
	switch field {
	case "intended_date":
		return a.IntendedDate < b.IntendedDate
	case "status":
		return a.Status < b.Status
	case "total_fare":
		return a.TotalFare < b.TotalFare
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}
