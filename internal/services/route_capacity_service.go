package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/internal/utils"
	"shuttle/pkg/logger"
)

// RouteCapacityService resolves how many seats a route offers per day and
// manages the price rules that define routes.
type RouteCapacityService interface {
	// Lookup fails with a configuration error when the route has no rule,
	// is disabled, or names a vehicle type outside the catalog.
	Lookup(ctx context.Context, route models.Route) (*models.RouteCapacity, error)

	// Price rule administration
	ListRules(ctx context.Context) ([]*models.PriceRule, error)
	UpsertRule(ctx context.Context, request *PriceRuleRequest) (*models.PriceRule, error)
	DeleteRule(ctx context.Context, id string) error
}

type PriceRuleRequest struct {
	PickupLocation string  `json:"pickup_location" binding:"required,location"`
	Destination    string  `json:"destination" binding:"required,location"`
	VehicleType    string  `json:"vehicle_type" binding:"required,vehicletype"`
	Fare           float64 `json:"fare" binding:"gte=0"`
	VehicleCount   int     `json:"vehicle_count" binding:"gte=0"`
}

type routeCapacityService struct {
	priceRepo interfaces.PriceRuleRepository
	now       func() time.Time
	logger    *logger.Logger
}

func NewRouteCapacityService(priceRepo interfaces.PriceRuleRepository, logger *logger.Logger) RouteCapacityService {
	return &routeCapacityService{
		priceRepo: priceRepo,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *routeCapacityService) Lookup(ctx context.Context, route models.Route) (*models.RouteCapacity, error) {
	key := utils.RouteKey(route.PickupLocation, route.Destination, route.VehicleType)

	rule, err := s.priceRepo.GetByID(ctx, key)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrNoCapacityRule
		}
		return nil, fmt.Errorf("failed to load price rule %s: %w", key, err)
	}

	if rule.VehicleCount <= 0 {
		return nil, ErrRouteDisabled
	}

	vehicle, ok := models.LookupVehicleType(route.VehicleType)
	if !ok {
		return nil, ErrUnknownVehicleType
	}

	return &models.RouteCapacity{
		RouteKey:           key,
		CapacityPerVehicle: vehicle.Capacity,
		VehicleCount:       rule.VehicleCount,
		MaxLuggage:         vehicle.MaxLuggage,
		Fare:               rule.Fare,
	}, nil
}

func (s *routeCapacityService) ListRules(ctx context.Context) ([]*models.PriceRule, error) {
	rules, err := s.priceRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list price rules: %w", err)
	}
	return rules, nil
}

func (s *routeCapacityService) UpsertRule(ctx context.Context, request *PriceRuleRequest) (*models.PriceRule, error) {
	if request.PickupLocation == request.Destination {
		return nil, ErrSameRoute
	}
	vehicle, ok := models.LookupVehicleType(request.VehicleType)
	if !ok {
		return nil, ErrUnknownVehicleType
	}
	if request.Fare < 0 || request.VehicleCount < 0 {
		return nil, fmt.Errorf("%w: fare and vehicle count must not be negative", ErrValidation)
	}

	now := s.now()
	rule := &models.PriceRule{
		ID:             utils.RouteKey(request.PickupLocation, request.Destination, vehicle.Name),
		PickupLocation: request.PickupLocation,
		Destination:    request.Destination,
		VehicleType:    vehicle.Name,
		Fare:           request.Fare,
		VehicleCount:   request.VehicleCount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.priceRepo.Upsert(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to save price rule: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"route_key":     rule.ID,
		"fare":          rule.Fare,
		"vehicle_count": rule.VehicleCount,
	}).Info("Price rule saved")

	return rule, nil
}

func (s *routeCapacityService) DeleteRule(ctx context.Context, id string) error {
	if err := s.priceRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrPriceRuleNotFound
		}
		return fmt.Errorf("failed to delete price rule: %w", err)
	}

	s.logger.WithField("route_key", id).Info("Price rule deleted")
	return nil
}
