package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"shuttle/internal/app"
	"shuttle/internal/config"
)

func main() {
	job := flag.String("job", "", "run a single sweep and exit: reschedule or cleanup")
	daemon := flag.Bool("daemon", false, "keep running and schedule both sweeps")
	flag.Parse()

	if (*job == "") == !*daemon {
		log.Fatal("exactly one of -job or -daemon is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := app.NewLogger(cfg.App)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	sweeps := application.Services.Sweep

	if *job != "" {
		if err := app.RunJob(ctx, sweeps, *job, appLogger); err != nil {
			appLogger.WithError(err).WithField("job", *job).Error("Sweep failed")
			application.Close()
			log.Fatalf("sweep %s failed: %v", *job, err)
		}
		return
	}

	scheduler, err := app.NewScheduler(ctx, sweeps, cfg.Booking, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to create scheduler: %v", err)
	}
	scheduler.Start()
	appLogger.WithFields(map[string]interface{}{
		"sweep_cron":       cfg.Booking.SweepCron,
		"cleanup_interval": cfg.Booking.CleanupInterval.String(),
	}).Info("Sweeper started")

	<-ctx.Done()
	appLogger.Info("Stopping sweeper")
	if err := scheduler.Shutdown(); err != nil {
		appLogger.WithError(err).Error("Scheduler shutdown failed")
	}
}
