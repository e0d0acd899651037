package services

import (
	"context"

	"pennyflow/internal/core"
)

// GoalStore is the external goal/pot collaborator. The engine only reads
// estimated costs and pot balances from it.
type GoalStore interface {
	ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error)
	ListPots(ctx context.Context, ownerID string) ([]core.Pot, error)
}

// RecomputePublisher requests an asynchronous aggregate rebuild.
type RecomputePublisher interface {
	PublishRecomputeRequest(ctx context.Context, ownerID, runID, reason string) error
}
