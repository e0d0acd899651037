package analytics

import (
	"testing"

	"pennyflow/internal/core"
)

func TestGoalProgressFunded(t *testing.T) {
	goals := []core.Goal{{
		ID: "g1", Title: "Holiday", EstimatedCostMajor: 400,
		LinkedPotID: "pot-1", CategoryKey: "short_term_general",
	}}
	pots := []core.Pot{{ID: "pot-1", Name: "Holiday Pot", BalanceMinor: 30000}}
	categories := []core.Category{{Key: "short_term_general", Bucket: core.BucketShortSaving}}
	cfg := core.BudgetConfig{
		ByCategory: map[string]core.CategoryBudget{
			"short_term_general": {AmountMinor: 10000, LastEdited: core.EditedAmount},
		},
	}

	out := GoalProgress(goals, pots, categories, cfg)

	if len(out) != 1 {
		t.Fatalf("progress rows = %d, want 1", len(out))
	}
	p := out[0]
	if !p.Linked {
		t.Fatal("goal should be linked")
	}
	if p.TargetMinor != 40000 {
		t.Errorf("target = %d, want 40000", p.TargetMinor)
	}
	if p.BalanceMinor != 30000 {
		t.Errorf("balance = %d, want 30000", p.BalanceMinor)
	}
	if p.FundedPercent != 75 {
		t.Errorf("funded = %v, want 75", p.FundedPercent)
	}
	if p.MonthsToTarget == nil || *p.MonthsToTarget != 1 {
		t.Errorf("months to target = %v, want 1", p.MonthsToTarget)
	}
	if p.PotName != "Holiday Pot" {
		t.Errorf("pot name = %q", p.PotName)
	}
}

// An unlinked goal stays in the distinct not-linked state instead of showing
// as 0% funded.
func TestGoalProgressUnlinked(t *testing.T) {
	goals := []core.Goal{
		{ID: "g1", Title: "Car", EstimatedCostMajor: 5000},
		{ID: "g2", Title: "Boat", EstimatedCostMajor: 9000, LinkedPotID: "missing-pot"},
	}

	out := GoalProgress(goals, nil, nil, core.BudgetConfig{})

	if len(out) != 2 {
		t.Fatalf("progress rows = %d, want 2", len(out))
	}
	for _, p := range out {
		if p.Linked {
			t.Errorf("goal %s should not be linked", p.GoalID)
		}
		if p.FundedPercent != 0 || p.MonthsToTarget != nil {
			t.Errorf("unlinked goal %s computed progress: %+v", p.GoalID, p)
		}
	}
	if out[0].TargetMinor != 500000 {
		t.Errorf("target = %d, want 500000", out[0].TargetMinor)
	}
}

// No configured contribution means no ETA. Nil, never a fabricated number.
func TestGoalProgressNoContributionNoETA(t *testing.T) {
	goals := []core.Goal{{
		ID: "g1", Title: "Holiday", EstimatedCostMajor: 400, LinkedPotID: "pot-1",
	}}
	pots := []core.Pot{{ID: "pot-1", Name: "Holiday Pot", BalanceMinor: 10000}}

	out := GoalProgress(goals, pots, nil, core.BudgetConfig{})

	if len(out) != 1 {
		t.Fatalf("progress rows = %d, want 1", len(out))
	}
	if out[0].MonthsToTarget != nil {
		t.Errorf("months to target = %v, want nil", out[0].MonthsToTarget)
	}
	if out[0].FundedPercent != 25 {
		t.Errorf("funded = %v, want 25", out[0].FundedPercent)
	}
}

func TestGoalProgressFundedCapsAtHundred(t *testing.T) {
	goals := []core.Goal{{
		ID: "g1", Title: "Emergency", EstimatedCostMajor: 100, LinkedPotID: "pot-1", CategoryKey: "emergency_fund",
	}}
	pots := []core.Pot{{ID: "pot-1", Name: "Emergency", BalanceMinor: 50000}}
	categories := []core.Category{{Key: "emergency_fund", Bucket: core.BucketShortSaving, BudgetAmountMinor: 5000}}

	out := GoalProgress(goals, pots, categories, core.BudgetConfig{})

	if out[0].FundedPercent != 100 {
		t.Errorf("funded = %v, want capped at 100", out[0].FundedPercent)
	}
	if out[0].MonthsToTarget == nil || *out[0].MonthsToTarget != 0 {
		t.Errorf("months to target = %v, want 0 for an overfunded goal", out[0].MonthsToTarget)
	}
}
