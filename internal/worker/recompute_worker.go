// Package worker runs the background recompute loop: it consumes recompute
// requests from AMQP and sweeps every owner on a timer so aggregates converge
// even when a request is lost.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"pennyflow/internal/amqp"
	"pennyflow/internal/services"
	"pennyflow/internal/storage"
)

type RecomputeWorker struct {
	service  *services.FinanceService
	storage  *storage.SQLiteRepository
	consumer *amqp.Client
	interval time.Duration
}

func NewRecomputeWorker(service *services.FinanceService, repo *storage.SQLiteRepository, consumer *amqp.Client, interval time.Duration) *RecomputeWorker {
	return &RecomputeWorker{
		service:  service,
		storage:  repo,
		consumer: consumer,
		interval: interval,
	}
}

// Run consumes recompute requests and runs the periodic sweep until the
// context is cancelled. Either loop failing stops the other.
func (w *RecomputeWorker) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	if w.consumer != nil {
		group.Go(func() error {
			return w.consumer.ConsumeRecomputeRequests(ctx, w.HandleRecomputeMessage)
		})
	}

	if w.interval > 0 {
		group.Go(func() error {
			return w.runPeriodicSweep(ctx)
		})
	}

	return group.Wait()
}

// HandleRecomputeMessage rebuilds one owner's aggregates. The message carries
// only identifiers; state is always reloaded from the database.
func (w *RecomputeWorker) HandleRecomputeMessage(ctx context.Context, msg *amqp.RecomputeRequestedMessage) error {
	slog.InfoContext(ctx, "Processing recompute request",
		"owner_id", msg.OwnerID,
		"run_id", msg.RunID,
		"reason", msg.Reason)

	if _, err := w.service.RecomputeAnalytics(ctx, msg.OwnerID); err != nil {
		return fmt.Errorf("recompute analytics for %s: %w", msg.OwnerID, err)
	}
	return nil
}

func (w *RecomputeWorker) runPeriodicSweep(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Started periodic recompute sweep", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic recompute sweep", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.SweepAllOwners(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sweep failed", "error", err)
			}
		}
	}
}

// SweepAllOwners recomputes every owner with stored transactions. Individual
// owner failures are logged and skipped so one bad owner cannot starve the
// rest.
func (w *RecomputeWorker) SweepAllOwners(ctx context.Context) error {
	owners, err := w.storage.ListOwners(ctx)
	if err != nil {
		return fmt.Errorf("list owners: %w", err)
	}
	if len(owners) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Sweeping owners for recompute", "count", len(owners))

	errorCount := 0
	for _, owner := range owners {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := w.service.RecomputeAnalytics(ctx, owner); err != nil {
			slog.ErrorContext(ctx, "Failed to recompute owner", "owner_id", owner, "error", err)
			errorCount++
		}
	}

	slog.InfoContext(ctx, "Sweep completed",
		"total", len(owners),
		"errors", errorCount)
	return nil
}
