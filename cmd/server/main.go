// Package main is the entry point for the horizon simulation server.
// It serves the historical returns and simulation run APIs and, when a
// refresh schedule is configured, re-runs a fixed simulation in the background.
//
// Startup sequence:
// 1. Load configuration from environment variables (.env file)
// 2. Initialize logging
// 3. Wire dependencies (database, repositories, path store, services)
// 4. Register and start background jobs
// 5. Start the HTTP server
// 6. Wait for a shutdown signal and shut down gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/horizon/internal/config"
	"github.com/aristath/horizon/internal/di"
	"github.com/aristath/horizon/internal/scheduler"
	"github.com/aristath/horizon/internal/server"
	"github.com/aristath/horizon/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("paths_backend", cfg.Paths.Backend).
		Msg("Starting horizon")

	// Cancelled on shutdown so that a scheduled refresh in progress stops
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close history database")
		}
	}()

	sched := scheduler.New(log)
	jobs, err := di.RegisterJobs(ctx, container, cfg, sched, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Container: container,
		Jobs:      jobs,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
