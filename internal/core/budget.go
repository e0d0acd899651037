package core

import "errors"

// EditedField marks which side of a category budget entry the user touched
// last. Conversion to the other side happens at save time only, so the stored
// pair can legitimately disagree between saves.
type EditedField string

const (
	EditedPercent EditedField = "percent"
	EditedAmount  EditedField = "amount"
)

// CategoryBudget is one per-category budget entry inside BudgetConfig.
type CategoryBudget struct {
	Percent     float64     `json:"percent"`
	AmountMinor int64       `json:"amountMinor"`
	LastEdited  EditedField `json:"lastEdited,omitempty"`
}

// BudgetConfig is the per-owner budget configuration singleton.
type BudgetConfig struct {
	OwnerID            string                    `json:"ownerId"`
	Currency           string                    `json:"currency"`
	MonthlyIncomeMinor int64                     `json:"monthlyIncomeMinor"`
	ByCategory         map[string]CategoryBudget `json:"byCategory"`
	ByBucket           map[Bucket]int64          `json:"byBucket"`
}

// NewBudgetConfig returns an empty configuration for an owner.
func NewBudgetConfig(ownerID string) BudgetConfig {
	return BudgetConfig{
		OwnerID:    ownerID,
		Currency:   "GBP",
		ByCategory: map[string]CategoryBudget{},
		ByBucket:   map[Bucket]int64{},
	}
}

// Validate rejects configurations the engine cannot work with.
func (c BudgetConfig) Validate() error {
	if c.OwnerID == "" {
		return NewFieldError("ownerId", ErrEmptyOwner)
	}
	if c.MonthlyIncomeMinor < 0 {
		return NewFieldError("monthlyIncomeMinor", ErrNegativeIncome)
	}
	for key, entry := range c.ByCategory {
		if key == "" {
			return NewFieldError("byCategory", errors.New("empty category key"))
		}
		if entry.Percent < 0 || entry.AmountMinor < 0 {
			return NewFieldError("byCategory."+key, ErrInvalidAmount)
		}
	}
	return nil
}

// Reconcile recomputes the non-authoritative side of every category entry
// from the last-edited one at the current income. Called on explicit save,
// never reactively; between saves the two sides may drift and that is the
// documented behavior.
func (c *BudgetConfig) Reconcile() {
	for key, entry := range c.ByCategory {
		switch entry.LastEdited {
		case EditedAmount:
			entry.Percent = BudgetPercent(entry.AmountMinor, c.MonthlyIncomeMinor)
		default:
			entry.AmountMinor = BudgetAmountMinor(entry.Percent, c.MonthlyIncomeMinor)
		}
		c.ByCategory[key] = entry
	}
}

// EffectiveAmountMinor resolves the budget amount for a category: an explicit
// per-category entry wins, then the category's own target, with percent
// converted at the configured income. Zero income makes percent-based targets
// resolve to zero rather than failing.
func (c BudgetConfig) EffectiveAmountMinor(cat Category) int64 {
	if entry, ok := c.ByCategory[cat.Key]; ok {
		if entry.LastEdited == EditedAmount && entry.AmountMinor > 0 {
			return entry.AmountMinor
		}
		if entry.Percent > 0 {
			return BudgetAmountMinor(entry.Percent, c.MonthlyIncomeMinor)
		}
		if entry.AmountMinor > 0 {
			return entry.AmountMinor
		}
	}
	if cat.BudgetPercent > 0 && c.MonthlyIncomeMinor > 0 {
		return BudgetAmountMinor(cat.BudgetPercent, c.MonthlyIncomeMinor)
	}
	return cat.BudgetAmountMinor
}
