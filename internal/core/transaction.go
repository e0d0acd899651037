package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrUnknownCategory  = errors.New("unknown category key")
	ErrEmptyMerchantKey = errors.New("empty merchant key")
	ErrNegativeIncome   = errors.New("monthly income cannot be negative")
	ErrEmptyOwner       = errors.New("empty owner id")
)

// FieldError is a validation failure tied to a specific field. The engine
// rejects the whole write; there are no partial updates.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// NewFieldError wraps err with the offending field name.
func NewFieldError(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}

// Transaction is one normalized bank-feed record. It is created by the
// external ingestion feed and mutated only to set the user override or the
// anomaly fields.
type Transaction struct {
	ID          string
	OwnerID     string
	AmountMinor int64 // negative = outflow, positive = inflow
	TimestampMs int64
	MerchantRaw string
	MerchantKey string // derived via NormalizeMerchant
	Description string

	UserCategoryKey    string // explicit per-transaction override, wins over rules
	DefaultCategoryKey string // auto-resolved at ingestion or bulk re-resolution

	EffectiveBucket Bucket
	AnomalyFlag     bool
	AnomalyScore    float64
	AnomalyReason   string

	PotRef string // savings pot this transaction moved money to, if any
}

// Time returns the transaction timestamp in UTC.
func (t Transaction) Time() time.Time {
	return time.UnixMilli(t.TimestampMs).UTC()
}

// MonthKey returns the "YYYY-MM" aggregation key for the transaction.
func (t Transaction) MonthKey() string {
	return t.Time().Format("2006-01")
}

// DayKey returns the "YYYY-MM-DD" key used by the daily spend series.
func (t Transaction) DayKey() string {
	return t.Time().Format("2006-01-02")
}

// Validate checks the fields the engine itself depends on. The ingestion feed
// owns the rest.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return NewFieldError("id", errors.New("cannot be empty"))
	}
	if strings.TrimSpace(t.OwnerID) == "" {
		return NewFieldError("ownerId", ErrEmptyOwner)
	}
	if t.TimestampMs <= 0 {
		return NewFieldError("timestampMs", errors.New("must be positive"))
	}
	return nil
}

// MerchantRule is a learned mapping from a normalized merchant key to a
// category. Rules are owner-scoped and last-write-wins on edit.
type MerchantRule struct {
	OwnerID       string
	MerchantKey   string
	CategoryKey   string
	CategoryLabel string
	CategoryType  Bucket
}

// Validate rejects rules that could never resolve anything.
func (r MerchantRule) Validate() error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return NewFieldError("ownerId", ErrEmptyOwner)
	}
	if strings.TrimSpace(r.MerchantKey) == "" {
		return NewFieldError("merchantKey", ErrEmptyMerchantKey)
	}
	if strings.TrimSpace(r.CategoryKey) == "" {
		return NewFieldError("categoryKey", errors.New("cannot be empty"))
	}
	return nil
}
