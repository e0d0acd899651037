package core

// RollupTotals are the four dashboard totals, absolute minor units.
type RollupTotals struct {
	Mandatory     int64 `json:"mandatory"`
	Discretionary int64 `json:"discretionary"`
	Savings       int64 `json:"savings"`
	Income        int64 `json:"income"`
}

// Add accumulates an absolute amount into the matching rollup total.
// RollupNone is a no-op.
func (t *RollupTotals) Add(r Rollup, absMinor int64) {
	switch r {
	case RollupMandatory:
		t.Mandatory += absMinor
	case RollupDiscretionary:
		t.Discretionary += absMinor
	case RollupSavings:
		t.Savings += absMinor
	case RollupIncome:
		t.Income += absMinor
	}
}

// Net returns income minus all outflow totals for the period.
func (t RollupTotals) Net() int64 {
	return t.Income - (t.Mandatory + t.Discretionary + t.Savings)
}

// CategoryTotal is one per-category row in a monthly aggregate.
type CategoryTotal struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Bucket      Bucket `json:"bucket"`
	AmountMinor int64  `json:"amountMinor"`
	Count       int    `json:"count"`
}

// MonthlyAggregate is the derived per-month summary. It is recomputed
// wholesale and never hand-edited.
type MonthlyAggregate struct {
	OwnerID    string          `json:"ownerId"`
	MonthKey   string          `json:"monthKey"` // "YYYY-MM"
	Totals     RollupTotals    `json:"totals"`
	NetMinor   int64           `json:"netMinor"`
	ByCategory []CategoryTotal `json:"byCategory"`
}

// MerchantSummary is the per-merchant spend rollup carried on the aggregate
// document, including basic recurring-payment detection.
type MerchantSummary struct {
	MerchantKey     string `json:"merchantKey"`
	MerchantName    string `json:"merchantName"`
	TotalSpendMinor int64  `json:"totalSpendMinor"`
	Transactions    int    `json:"transactions"`
	Months          int    `json:"months"`
	AvgAmountMinor  int64  `json:"avgAmountMinor"`
	IsRecurring     bool   `json:"isRecurring"`
}

// DailySpend is one point of the absolute-outflow daily series.
type DailySpend struct {
	Day         string `json:"day"` // "YYYY-MM-DD"
	AmountMinor int64  `json:"amountMinor"`
}

// BurndownPoint is one day of the budget burndown chart. Actual is set only
// up to the elapsed-day index; Projected takes over after it, leaving the
// seam between realized and extrapolated values visible.
type BurndownPoint struct {
	Day       int    `json:"day"` // 1-based index within the range
	Budget    int64  `json:"budgetMinor"`
	Actual    *int64 `json:"actualMinor,omitempty"`
	Projected *int64 `json:"projectedMinor,omitempty"`
}

// BucketBudget is one row of the bucket rollup: budgeted versus actual.
type BucketBudget struct {
	Bucket      Bucket `json:"bucket"`
	Label       string `json:"label"`
	BudgetMinor int64  `json:"budgetMinor"`
	ActualMinor int64  `json:"actualMinor"`
	Categories  int    `json:"categories"`
}

// AnalyticsSnapshot is the full published aggregate document for one owner.
// A recompute builds a complete snapshot in memory and atomically replaces
// the stored one.
type AnalyticsSnapshot struct {
	OwnerID      string             `json:"ownerId"`
	RunID        string             `json:"runId"`
	Sequence     int64              `json:"sequence"`
	GeneratedMs  int64              `json:"generatedMs"`
	Totals       RollupTotals       `json:"totals"`
	NetCashflow  int64              `json:"netCashflowMinor"`
	Monthly      []MonthlyAggregate `json:"monthly"`
	ByBucket     []BucketBudget     `json:"byBucket"`
	Merchants    []MerchantSummary  `json:"merchants"`
	DailySpend   []DailySpend       `json:"dailySpend"`
	Burndown     []BurndownPoint    `json:"burndown"`
	PendingCount int                `json:"pendingCount"`
}
