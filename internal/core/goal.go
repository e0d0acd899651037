package core

// Goal is a savings goal supplied by the external goal store.
type Goal struct {
	ID                 string
	Title              string
	EstimatedCostMajor float64
	LinkedPotID        string
	CategoryKey        string // category whose budget feeds this goal, if any
}

// Pot is a savings pot balance supplied by the external pot store.
type Pot struct {
	ID           string
	Name         string
	BalanceMinor int64
}

// GoalProgress is the derived funding state for one goal. FundedPercent and
// MonthsToTarget are computed, never stored as source of truth.
type GoalProgress struct {
	GoalID         string   `json:"goalId"`
	Title          string   `json:"title"`
	Linked         bool     `json:"linked"` // false renders as "not linked", distinct from 0% funded
	PotName        string   `json:"potName,omitempty"`
	TargetMinor    int64    `json:"targetMinor"`
	BalanceMinor   int64    `json:"balanceMinor"`
	FundedPercent  float64  `json:"fundedPercent"`
	MonthsToTarget *float64 `json:"monthsToTarget,omitempty"` // nil = unknown, never fabricated
}
