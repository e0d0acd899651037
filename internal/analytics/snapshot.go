package analytics

import (
	"time"

	"pennyflow/internal/core"
	"pennyflow/internal/resolve"
)

const merchantSummaryLimit = 50

// SnapshotInput is the point-in-time state a recompute works over. The caller
// owns loading it; nothing here reads ambient state.
type SnapshotInput struct {
	OwnerID      string
	Transactions []core.Transaction
	Categories   []core.Category
	Rules        []core.MerchantRule
	Budget       core.BudgetConfig
	Range        Range
	Today        time.Time
	Anomaly      AnomalyConfig
}

// BuildSnapshot computes the full aggregate document in memory. It is pure
// and deterministic: the same input always serializes to the same bytes,
// which is what makes recompute idempotent and safe to re-run.
func BuildSnapshot(in SnapshotInput) core.AnalyticsSnapshot {
	resolver := resolve.New(in.Categories, in.Rules)
	tagged := Tag(in.Transactions, resolver)

	snap := core.AnalyticsSnapshot{
		OwnerID:    in.OwnerID,
		Totals:     Totals(tagged),
		Monthly:    MonthlyAggregates(in.OwnerID, tagged),
		ByBucket:   RollupBuckets(in.Categories, in.Budget, tagged),
		Merchants:  MerchantSummaries(tagged, merchantSummaryLimit),
		DailySpend: DailySeries(tagged, in.Range),
	}
	snap.NetCashflow = snap.Totals.Net()

	budget := rangeBudget(in)
	snap.Burndown = Burndown(tagged, in.Range, in.Today, budget)

	for _, t := range tagged {
		if t.Tx.UserCategoryKey == "" && (t.Res.Source == resolve.SourceFallback) {
			snap.PendingCount++
		}
	}
	return snap
}

// rangeBudget is the total budget B for the burndown: the sum of effective
// category budgets over the outflow buckets, scaled to the range length in
// whole months (a month is treated as 30 days for scaling).
func rangeBudget(in SnapshotInput) int64 {
	var monthly int64
	for _, cat := range in.Categories {
		switch cat.Bucket.Rollup() {
		case core.RollupMandatory, core.RollupDiscretionary, core.RollupSavings:
			monthly += in.Budget.EffectiveAmountMinor(cat)
		}
	}
	days := in.Range.Days()
	if days >= 28 && days <= 31 {
		return monthly
	}
	return int64(float64(monthly) / 30.0 * float64(days))
}
