package routes

import (
	"net/http"
	"time"

	"shuttle/internal/handlers"
	"shuttle/internal/middleware"
	"shuttle/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Booking *handlers.BookingHandler
	Payment *handlers.PaymentHandler
	Admin   *handlers.AdminHandler
}

// Options configures the shared middleware chain.
type Options struct {
	JWTSecret      string
	JWTIssuer      string
	AllowedOrigins []string
	TrustedProxies []string
	Version        string
	// Health reports dependency status; a non-nil error marks the
	// service unhealthy.
	Health func() error
}

// SetupRouter builds the gin engine with the public and admin APIs.
func SetupRouter(h *Handlers, opts Options, log *logger.Logger) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	r.Use(middleware.RecoveryMiddleware(log))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(log))
	r.Use(middleware.CORSMiddleware(opts.AllowedOrigins))

	r.GET("/health", healthHandler(opts))

	v1 := r.Group("/api/v1")
	SetupPublicRoutes(v1, h)
	SetupAdminRoutes(v1, h.Admin, middleware.AdminRequired(opts.JWTSecret, opts.JWTIssuer, log))

	return r, nil
}

// SetupPublicRoutes mounts the rider-facing booking form and payment legs
func SetupPublicRoutes(r *gin.RouterGroup, h *Handlers) {
	r.GET("/availability", h.Booking.GetAvailability)

	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.Booking.CreateBooking)
		bookings.GET("/:id", h.Booking.GetBooking)
		bookings.POST("/:id/cancel", h.Booking.CancelBooking)
		bookings.POST("/:id/refund-request", h.Booking.RequestRefund)
	}

	r.GET("/payments/callback", h.Payment.Callback)

	// Provider webhooks authenticate by signature, not by token
	r.POST("/webhooks/:provider", h.Payment.HandleWebhook)
}

// SetupAdminRoutes mounts the operator dashboard behind auth
func SetupAdminRoutes(r *gin.RouterGroup, h *handlers.AdminHandler, auth gin.HandlerFunc) {
	admin := r.Group("/admin")
	admin.Use(auth)

	admin.GET("/summary", h.GetSummary)

	bookings := admin.Group("/bookings")
	{
		bookings.GET("", h.ListBookings)
		bookings.POST("/delete-range", h.DeleteBookingsInRange)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id/status", h.UpdateBookingStatus)
		bookings.POST("/:id/reschedule", h.RescheduleBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.DELETE("/:id", h.DeleteBooking)
		bookings.GET("/:id/notifications", h.GetNotificationHistory)
	}

	prices := admin.Group("/prices")
	{
		prices.GET("", h.ListPriceRules)
		prices.PUT("", h.UpsertPriceRule)
		prices.DELETE("/:id", h.DeletePriceRule)
	}

	trips := admin.Group("/trips")
	{
		trips.GET("", h.ListTrips)
		trips.GET("/:id", h.GetTrip)
	}

	admin.GET("/settings", h.GetSettings)
	admin.PUT("/settings", h.UpdateSettings)

	sweeps := admin.Group("/sweeps")
	{
		sweeps.POST("/cleanup", h.RunCleanup)
		sweeps.POST("/reschedule", h.RunReschedule)
		sweeps.GET("/reports", h.GetSweepReport)
		sweeps.GET("/:kind/reports", h.ListSweepReports)
	}
}

func healthHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{
			"status":    "healthy",
			"version":   opts.Version,
			"timestamp": time.Now().UTC(),
		}
		if opts.Health != nil {
			if err := opts.Health(); err != nil {
				status["status"] = "unhealthy"
				status["error"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, status)
				return
			}
		}
		c.JSON(http.StatusOK, status)
	}
}
