package analytics

import (
	"math"

	"pennyflow/internal/core"
)

// GoalProgress computes percent-funded and months-to-target for each goal.
//
// A goal with no linked pot stays in the distinct not-linked state rather
// than reporting 0% funded. MonthsToTarget comes from the configured monthly
// contribution toward the goal's category; with no contribution it stays nil,
// never a fabricated number.
func GoalProgress(goals []core.Goal, pots []core.Pot, categories []core.Category, cfg core.BudgetConfig) []core.GoalProgress {
	potsByID := make(map[string]core.Pot, len(pots))
	for _, p := range pots {
		potsByID[p.ID] = p
	}

	out := make([]core.GoalProgress, 0, len(goals))
	for _, g := range goals {
		progress := core.GoalProgress{
			GoalID:      g.ID,
			Title:       g.Title,
			TargetMinor: int64(math.Round(g.EstimatedCostMajor * 100)),
		}

		pot, linked := potsByID[g.LinkedPotID]
		if g.LinkedPotID == "" || !linked {
			out = append(out, progress)
			continue
		}
		progress.Linked = true
		progress.PotName = pot.Name
		progress.BalanceMinor = pot.BalanceMinor

		if g.EstimatedCostMajor > 0 {
			funded := (float64(pot.BalanceMinor) / 100.0) / g.EstimatedCostMajor * 100.0
			progress.FundedPercent = math.Min(100, funded)
		}

		if months, ok := monthsToTarget(g, pot, categories, cfg); ok {
			progress.MonthsToTarget = &months
		}

		out = append(out, progress)
	}
	return out
}

func monthsToTarget(g core.Goal, pot core.Pot, categories []core.Category, cfg core.BudgetConfig) (float64, bool) {
	if g.CategoryKey == "" {
		return 0, false
	}
	cat, ok := core.CategoryByKey(categories, g.CategoryKey)
	if !ok {
		return 0, false
	}
	monthly := cfg.EffectiveAmountMinor(cat)
	if monthly <= 0 {
		return 0, false
	}

	remaining := int64(math.Round(g.EstimatedCostMajor*100)) - pot.BalanceMinor
	if remaining <= 0 {
		return 0, true
	}
	return math.Ceil(float64(remaining)/float64(monthly)*10) / 10, true
}
