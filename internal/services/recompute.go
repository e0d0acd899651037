package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pennyflow/internal/analytics"
	"pennyflow/internal/core"
	"pennyflow/internal/storage"
)

// RecomputeAnalytics rebuilds one owner's aggregate document from scratch:
// load everything, compute in memory, publish atomically. Concurrent runs for
// the same owner are resolved at publish time by sequence number, so the last
// run to complete wins regardless of start order.
func (s *FinanceService) RecomputeAnalytics(ctx context.Context, ownerID string) (core.AnalyticsSnapshot, error) {
	if ownerID == "" {
		return core.AnalyticsSnapshot{}, core.NewFieldError("ownerId", core.ErrEmptyOwner)
	}

	started := s.now()
	runID := uuid.NewString()

	seq, err := s.storage.BeginRecomputeRun(ctx, ownerID, runID, started.UnixMilli())
	if err != nil {
		return core.AnalyticsSnapshot{}, fmt.Errorf("begin recompute run: %w", err)
	}

	categories, err := s.Categories(ctx, ownerID)
	if err != nil {
		return core.AnalyticsSnapshot{}, err
	}
	rules, err := s.storage.ListMerchantRules(ctx, ownerID)
	if err != nil {
		return core.AnalyticsSnapshot{}, fmt.Errorf("load merchant rules: %w", err)
	}
	txs, err := s.storage.ListTransactions(ctx, ownerID)
	if err != nil {
		return core.AnalyticsSnapshot{}, fmt.Errorf("load transactions: %w", err)
	}
	budget, err := s.storage.GetBudgetConfig(ctx, ownerID)
	if err != nil {
		return core.AnalyticsSnapshot{}, fmt.Errorf("load budget config: %w", err)
	}

	snap := analytics.BuildSnapshot(analytics.SnapshotInput{
		OwnerID:      ownerID,
		Transactions: txs,
		Categories:   categories,
		Rules:        rules,
		Budget:       budget,
		Range:        currentMonthRange(started),
		Today:        started,
		Anomaly:      s.anomaly,
	})
	snap.RunID = runID
	snap.Sequence = seq
	snap.GeneratedMs = s.now().UnixMilli()

	anomalies := analytics.DetectAnomalies(txs, s.anomaly)
	updates := make([]storage.AnomalyUpdate, 0, len(anomalies))
	for _, a := range anomalies {
		updates = append(updates, storage.AnomalyUpdate{
			TransactionID: a.TransactionID,
			Flag:          true,
			Score:         a.Score,
			Reason:        a.Reason,
		})
	}
	if err := s.storage.ApplyAnomalies(ctx, ownerID, updates); err != nil {
		return core.AnalyticsSnapshot{}, fmt.Errorf("apply anomalies: %w", err)
	}

	published, err := s.storage.PublishAggregate(ctx, snap)
	if err != nil {
		return core.AnalyticsSnapshot{}, fmt.Errorf("publish aggregate: %w", err)
	}
	if !published {
		slog.InfoContext(ctx, "Recompute superseded by a newer run",
			"owner_id", ownerID,
			"run_id", runID,
			"sequence", seq)
		return snap, nil
	}

	slog.InfoContext(ctx, "Recompute completed",
		"owner_id", ownerID,
		"run_id", runID,
		"sequence", seq,
		"transactions", len(txs),
		"anomalies", len(anomalies),
		"duration", s.now().Sub(started))
	return snap, nil
}

// currentMonthRange is the calendar month containing t, in UTC.
func currentMonthRange(t time.Time) analytics.Range {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return analytics.Range{
		Start: start,
		End:   start.AddDate(0, 1, -1),
	}
}
