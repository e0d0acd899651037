package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pennyflow/internal/amqp"
	"pennyflow/internal/analytics"
	"pennyflow/internal/config"
	applog "pennyflow/internal/log"
	"pennyflow/internal/services"
	"pennyflow/internal/storage"
	"pennyflow/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting pennyflow-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker never publishes recompute requests; it fulfils them.
	service := services.NewFinanceService(repo, nil, nil, analytics.AnomalyConfig{
		Lookback:   time.Duration(cfg.AnomalyLookbackDays) * 24 * time.Hour,
		Multiplier: cfg.AnomalyMultiplier,
		MinSamples: cfg.AnomalyMinSamples,
	})

	recomputeWorker := worker.NewRecomputeWorker(service, repo, amqpClient, cfg.RecomputeInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// On startup, bring every owner's aggregate up to date before consuming.
	if err := recomputeWorker.SweepAllOwners(ctx); err != nil {
		logger.Error("Startup sweep failed", "error", err)
		// Don't exit - the consume loop can still catch up.
	}

	done := make(chan error, 1)
	go func() {
		done <- recomputeWorker.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		// Give the worker time to finish the current recompute.
		select {
		case <-done:
			logger.Info("Worker shutdown complete")
		case <-time.After(30 * time.Second):
			logger.Warn("Shutdown timeout reached")
		}
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Worker stopped with error", "error", err)
			os.Exit(1)
		}
	}
}
