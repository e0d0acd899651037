package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"pennyflow/internal/core"
)

// AnomalyConfig tunes the detector. Zero values fall back to defaults.
type AnomalyConfig struct {
	// Lookback is how far behind each transaction the baseline reaches.
	Lookback time.Duration
	// Multiplier is how many times the trailing mean an amount must exceed
	// before it is flagged.
	Multiplier float64
	// MinSamples is the minimum history size before anything is flagged.
	// First occurrences are never anomalous.
	MinSamples int
}

func (c AnomalyConfig) withDefaults() AnomalyConfig {
	if c.Lookback <= 0 {
		c.Lookback = 90 * 24 * time.Hour
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 3.0
	}
	if c.MinSamples <= 0 {
		c.MinSamples = 3
	}
	return c
}

// Anomaly is one flagged transaction.
type Anomaly struct {
	TransactionID string
	Score         float64
	Reason        string
}

// DetectAnomalies compares each outflow against the trailing mean of earlier
// outflows for the same merchant key within the lookback window. The result
// is advisory metadata; it never blocks categorization or aggregation.
func DetectAnomalies(txs []core.Transaction, cfg AnomalyConfig) []Anomaly {
	cfg = cfg.withDefaults()

	ordered := make([]core.Transaction, len(txs))
	copy(ordered, txs)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].TimestampMs != ordered[j].TimestampMs {
			return ordered[i].TimestampMs < ordered[j].TimestampMs
		}
		return ordered[i].ID < ordered[j].ID
	})

	type sample struct {
		ts  int64
		abs int64
	}
	history := make(map[string][]sample)
	var out []Anomaly

	for _, tx := range ordered {
		if tx.AmountMinor >= 0 {
			continue
		}
		key := tx.MerchantKey
		if key == "" {
			key = core.NormalizeMerchant(tx.MerchantRaw)
		}
		if key == "" {
			continue
		}
		abs := -tx.AmountMinor

		cutoff := tx.TimestampMs - cfg.Lookback.Milliseconds()
		window := history[key]
		var sum int64
		count := 0
		for _, s := range window {
			if s.ts >= cutoff {
				sum += s.abs
				count++
			}
		}

		if count >= cfg.MinSamples {
			mean := float64(sum) / float64(count)
			if mean > 0 && float64(abs) > cfg.Multiplier*mean {
				score := float64(abs) / mean
				out = append(out, Anomaly{
					TransactionID: tx.ID,
					Score:         math.Round(score*100) / 100,
					Reason: fmt.Sprintf("amount %.2f is %.1fx the trailing average %.2f for this merchant",
						core.Money{Minor: abs}.Major(), score, core.Money{Minor: int64(math.Round(mean))}.Major()),
				})
			}
		}

		history[key] = append(window, sample{ts: tx.TimestampMs, abs: abs})
	}
	return out
}
