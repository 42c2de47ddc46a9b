package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type tripRepository struct {
	collection *mongo.Collection
}

func NewTripRepository(db *mongo.Database) interfaces.TripRepository {
	return &tripRepository{
		collection: db.Collection(database.CollectionTrips),
	}
}

func (r *tripRepository) Create(ctx context.Context, trip *models.Trip) error {
	now := time.Now()
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = now
	}
	trip.UpdatedAt = now
	if trip.Passengers == nil {
		trip.Passengers = []models.SeatEntry{}
	}

	_, err := r.collection.InsertOne(ctx, trip)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("trip %s already exists: %w", trip.ID, interfaces.ErrConflict)
		}
		return fmt.Errorf("failed to create trip: %w", err)
	}

	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id string) (*models.Trip, error) {
	var trip models.Trip
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trip)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("trip %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	return &trip, nil
}

func (r *tripRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}

	return nil
}

func (r *tripRepository) UpdatePassengers(ctx context.Context, trip *models.Trip) error {
	now := time.Now()
	passengers := trip.Passengers
	if passengers == nil {
		passengers = []models.SeatEntry{}
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":     trip.ID,
			"version": trip.Version,
		},
		bson.M{
			"$set": bson.M{
				"passengers": passengers,
				"is_full":    trip.IsFull,
				"updated_at": now,
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update trip passengers: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("trip %s changed concurrently: %w", trip.ID, interfaces.ErrConflict)
	}

	trip.Version++
	trip.UpdatedAt = now
	return nil
}

// Queries
func (r *tripRepository) ListByRouteDate(ctx context.Context, routeKey, date string) ([]*models.Trip, error) {
	return r.find(ctx, bson.M{"route_key": routeKey, "date": date})
}

func (r *tripRepository) ListByDate(ctx context.Context, date string) ([]*models.Trip, error) {
	return r.find(ctx, bson.M{"date": date})
}

func (r *tripRepository) ListUnderfilled(ctx context.Context, date string) ([]*models.Trip, error) {
	return r.find(ctx, bson.M{"date": date, "is_full": false})
}

func (r *tripRepository) ListAll(ctx context.Context) ([]*models.Trip, error) {
	return r.find(ctx, bson.M{})
}

func (r *tripRepository) ListFrom(ctx context.Context, date string) ([]*models.Trip, error) {
	return r.findSorted(ctx, bson.M{"date": bson.M{"$gte": date}}, bson.D{
		{Key: "date", Value: 1},
		{Key: "vehicle_index", Value: 1},
		{Key: "route_key", Value: 1},
	})
}

func (r *tripRepository) find(ctx context.Context, query bson.M) ([]*models.Trip, error) {
	return r.findSorted(ctx, query, bson.D{
		{Key: "route_key", Value: 1},
		{Key: "vehicle_index", Value: 1},
	})
}

func (r *tripRepository) findSorted(ctx context.Context, query bson.M, order bson.D) ([]*models.Trip, error) {
	opts := options.Find().SetSort(order)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer cursor.Close(ctx)

	trips := []*models.Trip{}
	if err = cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("failed to decode trips: %w", err)
	}

	return trips, nil
}
