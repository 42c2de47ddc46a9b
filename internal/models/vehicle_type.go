package models

// VehicleType describes one kind of vehicle in the fleet.
type VehicleType struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	MaxLuggage int    `json:"max_luggage"`
}

var VehicleCatalog = []VehicleType{
	{Key: "4-seater-sienna", Name: "4-Seater Sienna", Capacity: 4, MaxLuggage: 4},
	{Key: "5-seater-sienna", Name: "5-Seater Sienna", Capacity: 5, MaxLuggage: 2},
	{Key: "7-seater-bus", Name: "7-Seater Bus", Capacity: 7, MaxLuggage: 2},
}

// ServedLocations are the pickup and destination points the operator covers.
var ServedLocations = []string{
	"ABUAD",
	"Abeokuta",
	"Ajah Lagos",
	"FESTAC Lagos",
	"Ibadan",
	"Iyana Paja Lagos",
	"Ojota Lagos",
}

// LookupVehicleType accepts either the display name or the key.
func LookupVehicleType(name string) (VehicleType, bool) {
	for _, vt := range VehicleCatalog {
		if vt.Name == name || vt.Key == name {
			return vt, true
		}
	}
	return VehicleType{}, false
}

func IsServedLocation(location string) bool {
	for _, l := range ServedLocations {
		if l == location {
			return true
		}
	}
	return false
}
