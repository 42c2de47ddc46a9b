package config

import (
	"time"

	"shuttle/internal/models"
	"shuttle/internal/utils"
)

type BookingConfig struct {
	HoldDuration         time.Duration `yaml:"hold_duration"`
	MaxTxRetries         int           `yaml:"max_tx_retries"`
	LuggageFare          float64       `yaml:"luggage_fare"`
	OperatorEmail        string        `yaml:"operator_email"`
	OperatorPhone        string        `yaml:"operator_phone"`
	Timezone             string        `yaml:"timezone"`
	AvailabilityCacheTTL time.Duration `yaml:"availability_cache_ttl"`
	SweepCron            string        `yaml:"sweep_cron"`
	CleanupInterval      time.Duration `yaml:"cleanup_interval"`
	NotifyTimeout        time.Duration `yaml:"notify_timeout"`

	// Defaults for the runtime settings document.
	PaymentEnabled     bool   `yaml:"payment_enabled"`
	BookingWindowStart string `yaml:"booking_window_start"`
	BookingWindowEnd   string `yaml:"booking_window_end"`
}

func loadBookingConfig() *BookingConfig {
	return &BookingConfig{
		HoldDuration:         getEnvAsDuration("BOOKING_HOLD_DURATION", models.DefaultHoldDuration),
		MaxTxRetries:         getEnvAsInt("BOOKING_MAX_TX_RETRIES", 5),
		LuggageFare:          getEnvAsFloat64("BOOKING_LUGGAGE_FARE", 0),
		OperatorEmail:        getEnv("OPERATOR_EMAIL", "operator@shuttle.local"),
		OperatorPhone:        getEnv("OPERATOR_PHONE", ""),
		Timezone:             getEnv("BOOKING_TIMEZONE", utils.DefaultTimeZone),
		AvailabilityCacheTTL: getEnvAsDuration("AVAILABILITY_CACHE_TTL", utils.DefaultAvailabilityTTL),
		SweepCron:            getEnv("SWEEP_CRON", "5 0 * * *"),
		CleanupInterval:      getEnvAsDuration("CLEANUP_INTERVAL", 10*time.Minute),
		NotifyTimeout:        getEnvAsDuration("NOTIFY_TIMEOUT", 30*time.Second),
		PaymentEnabled:       getEnvAsBool("PAYMENT_ENABLED", true),
		BookingWindowStart:   getEnv("BOOKING_WINDOW_START", ""),
		BookingWindowEnd:     getEnv("BOOKING_WINDOW_END", ""),
	}
}

// Location returns the timezone calendar dates are computed in.
func (c *BookingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
