package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/internal/utils"
	"shuttle/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var seatHoldingStatuses = []models.BookingStatus{
	models.BookingStatusPending,
	models.BookingStatusPaid,
	models.BookingStatusConfirmed,
}

type bookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) interfaces.BookingRepository {
	return &bookingRepository{
		collection: db.Collection(database.CollectionBookings),
	}
}

// Basic CRUD operations
func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	now := time.Now()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("booking %s already exists: %w", booking.ID, interfaces.ErrConflict)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("booking %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Booking, error) {
	if len(ids) == 0 {
		return []*models.Booking{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*models.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("booking %s: %w", id, interfaces.ErrNotFound)
	}

	return nil
}

// Search and filtering
func (r *bookingRepository) List(ctx context.Context, filter *models.BookingFilter, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	query := bson.M{}
	if filter != nil {
		if filter.Status != "" {
			query["status"] = filter.Status
		}
		if filter.IntendedDate != "" {
			query["intended_date"] = filter.IntendedDate
		}
		if filter.TripID != "" {
			query["trip_id"] = filter.TripID
		}
		if filter.Search != "" {
			search := &utils.PaginationParams{Search: filter.Search}
			for k, v := range search.GetSearchFilter([]string{"_id", "full_name", "email", "phone"}) {
				query[k] = v
			}
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*models.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, 0, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, total, nil
}

func (r *bookingRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := bson.M{
		"created_at": bson.M{
			"$gte": start,
			"$lte": end,
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings in range: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*models.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookings: %w", err)
	}

	return result.DeletedCount, nil
}

// Seat operations
func (r *bookingRepository) SetTrip(ctx context.Context, id, tripID string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{
		"_id":    id,
		"status": bson.M{"$in": seatHoldingStatuses},
	}, bson.M{
		"$set": bson.M{"trip_id": tripID, "updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to set booking trip: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("booking %s has no seat to link: %w", id, interfaces.ErrConflict)
	}

	return nil
}

func (r *bookingRepository) ClearTrip(ctx context.Context, id string) error {
	return r.update(ctx, id, bson.M{
		"$set":   bson.M{"updated_at": time.Now()},
		"$unset": bson.M{"trip_id": ""},
	})
}

func (r *bookingRepository) PrepareReschedule(ctx context.Context, id, newDate string) error {
	return r.update(ctx, id, bson.M{
		"$set":   bson.M{"intended_date": newDate, "updated_at": time.Now()},
		"$unset": bson.M{"trip_id": ""},
		"$inc":   bson.M{"rescheduled_count": 1},
	})
}

func (r *bookingRepository) TransitionStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus, update *models.BookingStatusUpdate) (bool, error) {
	set := bson.M{
		"status":     to,
		"updated_at": time.Now(),
	}
	change := bson.M{"$set": set}

	if update != nil {
		if update.PaymentReference != "" {
			set["payment_reference"] = update.PaymentReference
		}
		if update.ConfirmedDate != "" {
			set["confirmed_date"] = update.ConfirmedDate
		}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{
		"_id":    id,
		"status": bson.M{"$in": from},
	}, change)
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}

	return result.ModifiedCount > 0, nil
}

func (r *bookingRepository) update(ctx context.Context, id string, change bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, change)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("booking %s: %w", id, interfaces.ErrNotFound)
	}

	return nil
}
