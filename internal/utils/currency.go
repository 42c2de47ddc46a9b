package utils

import (
	"math"
)

// zeroDecimalCurrencies are charged in whole units by the gateways.
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
}

// ToMinorUnits converts a fare to the smallest currency unit the payment
// gateways expect (kobo, cents).
func ToMinorUnits(amount float64, currencyCode string) int64 {
	if zeroDecimalCurrencies[currencyCode] {
		return int64(math.Round(amount))
	}
	return int64(math.Round(amount * 100))
}

func FromMinorUnits(amount int64, currencyCode string) float64 {
	if zeroDecimalCurrencies[currencyCode] {
		return float64(amount)
	}
	return float64(amount) / 100
}
