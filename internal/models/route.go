package models

import (
	"time"
)

// Route is a (pickup, destination, vehicle type) tuple governed by one PriceRule.
type Route struct {
	PickupLocation string `json:"pickup_location" bson:"pickup_location"`
	Destination    string `json:"destination" bson:"destination"`
	VehicleType    string `json:"vehicle_type" bson:"vehicle_type"`
}

// PriceRule is the operator's definition of a route: its fare and how many
// vehicles may run on it per day. A VehicleCount of 0 disables the route.
type PriceRule struct {
	ID             string    `json:"id" bson:"_id"`
	PickupLocation string    `json:"pickup_location" bson:"pickup_location"`
	Destination    string    `json:"destination" bson:"destination"`
	VehicleType    string    `json:"vehicle_type" bson:"vehicle_type"`
	Fare           float64   `json:"fare" bson:"fare"`
	VehicleCount   int       `json:"vehicle_count" bson:"vehicle_count"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

func (p *PriceRule) Route() Route {
	return Route{
		PickupLocation: p.PickupLocation,
		Destination:    p.Destination,
		VehicleType:    p.VehicleType,
	}
}

// RouteCapacity is what assignment needs to know about a route.
type RouteCapacity struct {
	RouteKey           string  `json:"route_key"`
	CapacityPerVehicle int     `json:"capacity_per_vehicle"`
	VehicleCount       int     `json:"vehicle_count"`
	MaxLuggage         int     `json:"max_luggage"`
	Fare               float64 `json:"fare"`
}

func (c RouteCapacity) TotalCapacity() int {
	return c.CapacityPerVehicle * c.VehicleCount
}
