package analytics

import (
	"testing"
	"time"

	"pennyflow/internal/core"
)

func gymTx(id string, day int, amountMinor int64) core.Transaction {
	return core.Transaction{
		ID:          id,
		AmountMinor: amountMinor,
		TimestampMs: ms(2025, time.March, day),
		MerchantKey: "puregym",
	}
}

func TestDetectAnomaliesFlagsSpike(t *testing.T) {
	txs := []core.Transaction{
		gymTx("t1", 1, -5000),
		gymTx("t2", 8, -5000),
		gymTx("t3", 15, -5000),
		gymTx("t4", 22, -20000), // 4x the trailing mean
	}

	out := DetectAnomalies(txs, AnomalyConfig{})

	if len(out) != 1 {
		t.Fatalf("anomalies = %d, want 1", len(out))
	}
	if out[0].TransactionID != "t4" {
		t.Errorf("flagged = %q, want t4", out[0].TransactionID)
	}
	if out[0].Score != 4 {
		t.Errorf("score = %v, want 4", out[0].Score)
	}
	if out[0].Reason == "" {
		t.Error("reason must be populated")
	}
}

func TestDetectAnomaliesRespectsMinSamples(t *testing.T) {
	// Two prior samples only: below the default minimum of three.
	txs := []core.Transaction{
		gymTx("t1", 1, -5000),
		gymTx("t2", 8, -5000),
		gymTx("t3", 15, -50000),
	}

	if out := DetectAnomalies(txs, AnomalyConfig{}); len(out) != 0 {
		t.Fatalf("anomalies = %v, want none below min samples", out)
	}
}

func TestDetectAnomaliesNeverFlagsFirstOccurrence(t *testing.T) {
	txs := []core.Transaction{
		gymTx("t1", 1, -5000),
		gymTx("t2", 8, -5000),
		gymTx("t3", 15, -5000),
		{ID: "t4", AmountMinor: -900000, TimestampMs: ms(2025, time.March, 20), MerchantKey: "new car dealer"},
	}

	if out := DetectAnomalies(txs, AnomalyConfig{}); len(out) != 0 {
		t.Fatalf("anomalies = %v, first occurrence must never flag", out)
	}
}

func TestDetectAnomaliesIgnoresInflows(t *testing.T) {
	txs := []core.Transaction{
		gymTx("t1", 1, -5000),
		gymTx("t2", 8, -5000),
		gymTx("t3", 15, -5000),
		gymTx("t4", 22, 90000), // refund, not an outflow
	}

	if out := DetectAnomalies(txs, AnomalyConfig{}); len(out) != 0 {
		t.Fatalf("anomalies = %v, inflows must never flag", out)
	}
}

func TestDetectAnomaliesLookbackWindow(t *testing.T) {
	cfg := AnomalyConfig{Lookback: 7 * 24 * time.Hour, Multiplier: 3, MinSamples: 3}

	// History is old enough to fall outside the one week lookback, so the
	// spike has no baseline to compare against.
	txs := []core.Transaction{
		gymTx("t1", 1, -5000),
		gymTx("t2", 2, -5000),
		gymTx("t3", 3, -5000),
		gymTx("t4", 25, -50000),
	}

	if out := DetectAnomalies(txs, cfg); len(out) != 0 {
		t.Fatalf("anomalies = %v, stale history must not flag", out)
	}
}

func TestDetectAnomaliesBelowMultiplierNotFlagged(t *testing.T) {
	txs := []core.Transaction{
		gymTx("t1", 1, -5000),
		gymTx("t2", 8, -5000),
		gymTx("t3", 15, -5000),
		gymTx("t4", 22, -14000), // 2.8x: under the 3x threshold
	}

	if out := DetectAnomalies(txs, AnomalyConfig{}); len(out) != 0 {
		t.Fatalf("anomalies = %v, want none under the multiplier", out)
	}
}

// Detection walks transactions in timestamp order regardless of input order.
func TestDetectAnomaliesOrderIndependent(t *testing.T) {
	txs := []core.Transaction{
		gymTx("t4", 22, -20000),
		gymTx("t2", 8, -5000),
		gymTx("t1", 1, -5000),
		gymTx("t3", 15, -5000),
	}

	out := DetectAnomalies(txs, AnomalyConfig{})

	if len(out) != 1 || out[0].TransactionID != "t4" {
		t.Fatalf("anomalies = %+v, want t4 only", out)
	}
}
