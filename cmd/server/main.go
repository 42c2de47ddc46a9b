package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"shuttle/internal/app"
	"shuttle/internal/config"
	"shuttle/internal/handlers"
	"shuttle/internal/utils"
	"shuttle/internal/validators"
	"shuttle/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	issueToken := flag.String("issue-admin-token", "", "print an admin bearer token for the given admin id and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *issueToken != "" {
		token, err := utils.GenerateAdminToken(*issueToken, cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.AdminTokenTTL)
		if err != nil {
			log.Fatalf("Failed to issue admin token: %v", err)
		}
		fmt.Println(token.AccessToken)
		return
	}

	appLogger, err := app.NewLogger(cfg.App)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := validators.RegisterWithGin(); err != nil {
		appLogger.Fatalf("Failed to register validators: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	svc := application.Services

	// Initialize handlers
	router, err := routes.SetupRouter(&routes.Handlers{
		Booking: handlers.NewBookingHandler(svc.Booking, svc.Availability, appLogger),
		Payment: handlers.NewPaymentHandler(svc.Booking, application.Webhooks, appLogger),
		Admin: handlers.NewAdminHandler(svc.Booking, svc.Capacity, svc.Trip, svc.Settings, svc.Sweep,
			svc.Notification, appLogger),
	}, routes.Options{
		JWTSecret:      cfg.Security.JWTSecret,
		JWTIssuer:      cfg.Security.JWTIssuer,
		AllowedOrigins: cfg.Security.CORSAllowedOrigins,
		TrustedProxies: cfg.Security.TrustedProxies,
		Version:        cfg.App.Version,
		Health:         application.Health,
	}, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to set up router: %v", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Error("Server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Graceful shutdown failed")
	}
	appLogger.Info("Server stopped")
}
