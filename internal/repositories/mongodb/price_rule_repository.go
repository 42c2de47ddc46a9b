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

type priceRuleRepository struct {
	collection *mongo.Collection
}

func NewPriceRuleRepository(db *mongo.Database) interfaces.PriceRuleRepository {
	return &priceRuleRepository{
		collection: db.Collection(database.CollectionPrices),
	}
}

func (r *priceRuleRepository) GetByID(ctx context.Context, id string) (*models.PriceRule, error) {
	var rule models.PriceRule
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("price rule %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get price rule: %w", err)
	}

	return &rule, nil
}

func (r *priceRuleRepository) List(ctx context.Context) ([]*models.PriceRule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list price rules: %w", err)
	}
	defer cursor.Close(ctx)

	rules := []*models.PriceRule{}
	if err = cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode price rules: %w", err)
	}

	return rules, nil
}

func (r *priceRuleRepository) Upsert(ctx context.Context, rule *models.PriceRule) error {
	now := time.Now()
	rule.UpdatedAt = now

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": rule.ID},
		bson.M{
			"$set": bson.M{
				"pickup_location": rule.PickupLocation,
				"destination":     rule.Destination,
				"vehicle_type":    rule.VehicleType,
				"fare":            rule.Fare,
				"vehicle_count":   rule.VehicleCount,
				"updated_at":      now,
			},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert price rule: %w", err)
	}

	return nil
}

func (r *priceRuleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete price rule: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("price rule %s: %w", id, interfaces.ErrNotFound)
	}

	return nil
}
