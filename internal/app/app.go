// Package app wires configuration into repositories, adapters and services
// for the server and sweeper binaries.
package app

import (
	"context"
	"fmt"

	"shuttle/internal/config"
	"shuttle/internal/handlers"
	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
	"shuttle/internal/repositories/memory"
	"shuttle/internal/repositories/mongodb"
	"shuttle/internal/services"
	"shuttle/internal/utils"
	"shuttle/pkg/cache"
	"shuttle/pkg/database"
	"shuttle/pkg/logger"
	"shuttle/pkg/mailer"
	"shuttle/pkg/payment"
	"shuttle/pkg/sms"
	"shuttle/pkg/storage"
)

// Repositories is the persistence layer for one database driver.
type Repositories struct {
	Tx            interfaces.TxRunner
	Bookings      interfaces.BookingRepository
	Trips         interfaces.TripRepository
	PriceRules    interfaces.PriceRuleRepository
	Settings      interfaces.SettingsRepository
	Notifications interfaces.NotificationRepository
}

// Services holds every service the binaries use.
type Services struct {
	Capacity     services.RouteCapacityService
	Availability services.AvailabilityService
	Confirmation services.TripConfirmationService
	Assignment   services.TripAssignmentService
	Cleanup      services.CleanupService
	Reschedule   services.RescheduleService
	Settings     services.SettingsService
	Notification services.NotificationService
	Booking      services.BookingService
	Trip         services.TripService
	Sweep        services.SweepService
}

// App owns the connections opened for a process.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Services *Services
	Webhooks map[string]handlers.Webhook

	mongo *database.MongoDB
	cache cache.Cache
}

// New connects to the configured backends and builds the services.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log}

	repos, err := a.openRepositories(cfg.Database, cfg.Booking.MaxTxRetries)
	if err != nil {
		return nil, err
	}

	a.cache = openCache(cfg.Redis, log)

	archive, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, err
	}

	channels, err := notificationChannels(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if len(channels) == 0 {
		log.Warn("No notification channel configured, notifications will only be logged")
	}

	gateway, webhooks := paymentGateway(cfg.Payment)
	if gateway == nil {
		log.Warn("No payment gateway configured, bookings fall back to offline payment")
	}
	a.Webhooks = webhooks

	loc := cfg.Booking.Location()
	operator := models.Recipient{Name: "Operator", Email: cfg.Booking.OperatorEmail, Phone: cfg.Booking.OperatorPhone}

	s := &Services{}
	s.Notification = services.NewNotificationService(channels, repos.Notifications, operator, cfg.Booking.NotifyTimeout, log)
	s.Capacity = services.NewRouteCapacityService(repos.PriceRules, log)
	s.Availability = services.NewAvailabilityService(repos.Trips, s.Capacity, a.cache, cfg.Booking.AvailabilityCacheTTL, log)
	s.Confirmation = services.NewTripConfirmationService(repos.Trips, repos.Bookings, s.Notification, log)
	s.Assignment = services.NewTripAssignmentService(repos.Tx, repos.Trips, repos.Bookings, s.Capacity, s.Confirmation,
		s.Availability, s.Notification, cfg.Booking.HoldDuration, log)
	s.Cleanup = services.NewCleanupService(repos.Tx, repos.Trips, s.Availability, log)
	s.Reschedule = services.NewRescheduleService(repos.Tx, repos.Trips, repos.Bookings, s.Assignment, s.Notification, loc, log)
	s.Settings = services.NewSettingsService(repos.Settings, models.Settings{
		PaymentEnabled:     cfg.Booking.PaymentEnabled,
		BookingWindowStart: cfg.Booking.BookingWindowStart,
		BookingWindowEnd:   cfg.Booking.BookingWindowEnd,
	}, log)

	s.Booking = services.NewBookingService(repos.Tx, repos.Bookings, repos.Trips, s.Capacity, s.Assignment, s.Confirmation,
		s.Cleanup, s.Availability, s.Notification, s.Settings, gateway, services.BookingServiceConfig{
			LuggageFare: cfg.Booking.LuggageFare,
			Currency:    cfg.Payment.Currency,
			Location:    loc,
		}, log)
	s.Trip = services.NewTripService(repos.Trips, repos.Bookings, loc)
	s.Sweep = services.NewSweepService(s.Cleanup, s.Reschedule, a.cache, archive, cfg.Storage.Prefix, log)

	a.Services = s
	return a, nil
}

func (a *App) openRepositories(cfg *config.DatabaseConfig, maxRetries int) (*Repositories, error) {
	if cfg.Driver == config.DriverMemory {
		a.Logger.Warn("Using the in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &Repositories{
			Tx:            memory.NewTxRunner(store, maxRetries),
			Bookings:      memory.NewBookingRepository(store),
			Trips:         memory.NewTripRepository(store),
			PriceRules:    memory.NewPriceRuleRepository(store),
			Settings:      memory.NewSettingsRepository(store),
			Notifications: memory.NewNotificationRepository(store),
		}, nil
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.URI,
		Database:       cfg.Database,
		MaxPoolSize:    cfg.MaxPoolSize,
		MinPoolSize:    cfg.MinPoolSize,
		ConnectTimeout: cfg.ConnectTimeout,
		SocketTimeout:  cfg.SocketTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a.mongo = db

	if cfg.MigrateOnStart {
		if err := db.EnsureIndexes(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &Repositories{
		Tx:            mongodb.NewTxRunner(db, maxRetries, a.Logger),
		Bookings:      mongodb.NewBookingRepository(db.Database),
		Trips:         mongodb.NewTripRepository(db.Database),
		PriceRules:    mongodb.NewPriceRuleRepository(db.Database),
		Settings:      mongodb.NewSettingsRepository(db.Database),
		Notifications: mongodb.NewNotificationRepository(db.Database),
	}, nil
}

// openCache prefers Redis so sweep locks hold across processes, and falls
// back to a process-local cache when Redis is off or unreachable.
func openCache(cfg *config.RedisConfig, log *logger.Logger) cache.Cache {
	if !cfg.Enabled {
		return cache.NewMemoryCache()
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Host,
		Port:         cfg.Port,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		log.WithError(err).WithField("addr", cfg.Addr()).Warn("Redis unavailable, using in-process cache")
		return cache.NewMemoryCache()
	}
	return redisCache
}

func openStorage(ctx context.Context, cfg *config.StorageConfig) (storage.StorageProvider, error) {
	switch cfg.Provider {
	case config.StorageProviderS3:
		return storage.NewAWSS3Storage(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey)
	case config.StorageProviderGCS:
		return storage.NewGCPStorage(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile)
	case config.StorageProviderLocal, "":
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_PROVIDER %q", cfg.Provider)
	}
}

func notificationChannels(ctx context.Context, cfg *config.Config) ([]services.NotificationChannel, error) {
	var channels []services.NotificationChannel

	if cfg.SMTP.Enabled {
		m := mailer.NewSMTPMailer(&mailer.Config{
			Host:       cfg.SMTP.Host,
			Port:       cfg.SMTP.Port,
			Username:   cfg.SMTP.Username,
			Password:   cfg.SMTP.Password,
			FromEmail:  cfg.SMTP.FromEmail,
			FromName:   cfg.SMTP.FromName,
			TLS:        cfg.SMTP.TLS,
			AuthMethod: cfg.SMTP.AuthMethod,
		})
		channels = append(channels, services.NewEmailChannel(m, cfg.Booking.OperatorEmail))
	}

	switch cfg.SMS.Provider {
	case config.SMSProviderTwilio:
		provider := sms.NewTwilioProvider(cfg.SMS.Twilio.AccountSID, cfg.SMS.Twilio.AuthToken, cfg.SMS.Twilio.FromNumber)
		channels = append(channels, services.NewSMSChannel(provider, cfg.SMS.Twilio.FromNumber))
	case config.SMSProviderSNS:
		provider, err := sms.NewAWSSNSProvider(ctx, cfg.SMS.AWS.Region, cfg.SMS.AWS.AccessKeyID, cfg.SMS.AWS.SecretAccessKey, cfg.SMS.DefaultFrom)
		if err != nil {
			return nil, fmt.Errorf("failed to create SNS provider: %w", err)
		}
		channels = append(channels, services.NewSMSChannel(provider, cfg.SMS.DefaultFrom))
	case config.SMSProviderNone, "":
	default:
		return nil, fmt.Errorf("unsupported SMS_PROVIDER %q", cfg.SMS.Provider)
	}

	return channels, nil
}

// paymentGateway returns the default checkout provider and the webhook
// verifiers of every provider with credentials.
func paymentGateway(cfg *config.PaymentConfig) (payment.CheckoutGateway, map[string]handlers.Webhook) {
	webhooks := make(map[string]handlers.Webhook)

	var stripeCheckout *payment.StripeCheckout
	if cfg.Stripe.SecretKey != "" {
		stripeCheckout = payment.NewStripeCheckout(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.CallbackURL, cfg.CancelURL)
		webhooks[config.PaymentProviderStripe] = handlers.Webhook{
			Verifier:        stripeCheckout,
			SignatureHeader: utils.HeaderStripeSig,
			CompletedEvent:  payment.EventCheckoutCompleted,
		}
	}

	var razorpayCheckout *payment.RazorpayCheckout
	if cfg.Razorpay.KeyID != "" {
		razorpayCheckout = payment.NewRazorpayCheckout(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.Webhook, cfg.CallbackURL)
		webhooks[config.PaymentProviderRazorpay] = handlers.Webhook{
			Verifier:        razorpayCheckout,
			SignatureHeader: utils.HeaderRazorpaySig,
			CompletedEvent:  payment.EventPaymentLinkPaid,
		}
	}

	switch {
	case cfg.DefaultProvider == config.PaymentProviderRazorpay && razorpayCheckout != nil:
		return razorpayCheckout, webhooks
	case cfg.DefaultProvider == config.PaymentProviderStripe && stripeCheckout != nil:
		return stripeCheckout, webhooks
	}
	return nil, webhooks
}

// Health pings the database when one is in use.
func (a *App) Health() error {
	if a.mongo == nil {
		return nil
	}
	return a.mongo.Ping()
}

// Close drains pending notifications and releases connections.
func (a *App) Close() {
	if a.Services != nil {
		a.Services.Notification.Wait()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.Logger.WithError(err).Warn("Failed to close cache")
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Close(); err != nil {
			a.Logger.WithError(err).Warn("Failed to close MongoDB")
		}
	}
}

// NewLogger builds the process logger from the app settings.
func NewLogger(cfg *config.AppConfig) (*logger.Logger, error) {
	return logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		Format:     cfg.LogFormat,
		Output:     cfg.LogOutput,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Caller:     cfg.Debug,
		AppName:    cfg.Name,
		Version:    cfg.Version,
	})
}
