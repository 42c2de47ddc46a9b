package utils

import (
	"strings"

	"github.com/gosimple/slug"
)

// RouteKey builds the normalized id shared by a price rule and its trips,
// e.g. "abeokuta_ibadan_4-seater-sienna".
func RouteKey(pickup, destination, vehicleType string) string {
	parts := []string{slug.Make(pickup), slug.Make(destination), slug.Make(vehicleType)}
	return strings.Join(parts, "_")
}
