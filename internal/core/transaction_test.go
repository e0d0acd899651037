package core

import (
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{ID: "tx-1", OwnerID: "owner-1", TimestampMs: 1700000000000}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	tests := []struct {
		name string
		tx   Transaction
	}{
		{"missing id", Transaction{OwnerID: "owner-1", TimestampMs: 1}},
		{"blank id", Transaction{ID: "  ", OwnerID: "owner-1", TimestampMs: 1}},
		{"missing owner", Transaction{ID: "tx-1", TimestampMs: 1}},
		{"zero timestamp", Transaction{ID: "tx-1", OwnerID: "owner-1"}},
		{"negative timestamp", Transaction{ID: "tx-1", OwnerID: "owner-1", TimestampMs: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.tx.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestTransactionKeys(t *testing.T) {
	ts := time.Date(2025, time.March, 7, 23, 30, 0, 0, time.UTC)
	tx := Transaction{TimestampMs: ts.UnixMilli()}

	if got := tx.MonthKey(); got != "2025-03" {
		t.Errorf("MonthKey = %q, want 2025-03", got)
	}
	if got := tx.DayKey(); got != "2025-03-07" {
		t.Errorf("DayKey = %q, want 2025-03-07", got)
	}
	if got := tx.Time(); !got.Equal(ts) {
		t.Errorf("Time = %v, want %v", got, ts)
	}
}

func TestMerchantRuleValidate(t *testing.T) {
	valid := MerchantRule{OwnerID: "o", MerchantKey: "tesco stores", CategoryKey: "groceries"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}

	tests := []struct {
		name string
		rule MerchantRule
	}{
		{"missing owner", MerchantRule{MerchantKey: "tesco", CategoryKey: "groceries"}},
		{"missing merchant key", MerchantRule{OwnerID: "o", CategoryKey: "groceries"}},
		{"missing category key", MerchantRule{OwnerID: "o", MerchantKey: "tesco"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.rule.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
