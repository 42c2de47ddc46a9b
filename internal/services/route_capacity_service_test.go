package services

import (
	"testing"

	"shuttle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertRule_NormalizesVehicleAndKey(t *testing.T) {
	f := newFixture(t)

	rule, err := f.capacity.UpsertRule(f.ctx, &PriceRuleRequest{
		PickupLocation: testPickup,
		Destination:    testDestination,
		VehicleType:    "4-seater-sienna",
		Fare:           5000,
		VehicleCount:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, testRouteKey, rule.ID)
	assert.Equal(t, testVehicle, rule.VehicleType)

	capacity, err := f.capacity.Lookup(f.ctx, testRoute)
	require.NoError(t, err)
	assert.Equal(t, 4, capacity.CapacityPerVehicle)
	assert.Equal(t, 2, capacity.VehicleCount)
	assert.Equal(t, 8, capacity.TotalCapacity())
	assert.Equal(t, 4, capacity.MaxLuggage)
	assert.Equal(t, 5000.0, capacity.Fare)

	f.seedRule(t, testVehicle, 3, 6000)
	rules, err := f.capacity.ListRules(f.ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 3, rules[0].VehicleCount)
}

func TestUpsertRule_Rejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.capacity.UpsertRule(f.ctx, &PriceRuleRequest{
		PickupLocation: testPickup, Destination: testPickup, VehicleType: testVehicle,
	})
	assert.ErrorIs(t, err, ErrSameRoute)

	_, err = f.capacity.UpsertRule(f.ctx, &PriceRuleRequest{
		PickupLocation: testPickup, Destination: testDestination, VehicleType: "Limo",
	})
	assert.ErrorIs(t, err, ErrUnknownVehicleType)

	_, err = f.capacity.UpsertRule(f.ctx, &PriceRuleRequest{
		PickupLocation: testPickup, Destination: testDestination, VehicleType: testVehicle, Fare: -1,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLookup_DisabledAndDeletedRoutes(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, testVehicle, 0, 5000)

	_, err := f.capacity.Lookup(f.ctx, testRoute)
	assert.ErrorIs(t, err, ErrRouteDisabled)

	require.NoError(t, f.capacity.DeleteRule(f.ctx, testRouteKey))
	_, err = f.capacity.Lookup(f.ctx, testRoute)
	assert.ErrorIs(t, err, ErrNoCapacityRule)

	assert.ErrorIs(t, f.capacity.DeleteRule(f.ctx, testRouteKey), ErrPriceRuleNotFound)

	_, err = f.capacity.Lookup(f.ctx, models.Route{PickupLocation: "Ibadan", Destination: "Abeokuta", VehicleType: testVehicle})
	assert.ErrorIs(t, err, ErrConfiguration)
}
