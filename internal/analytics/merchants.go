package analytics

import (
	"math"
	"sort"

	"pennyflow/internal/core"
)

// recurring detection thresholds: a merchant seen in at least two distinct
// months whose amounts vary little is treated as a recurring payment.
const (
	recurringMinMonths = 2
	recurringMaxCV     = 0.25
)

// MerchantSummaries rolls spend up per merchant key, sorted by descending
// total spend with key as tie-break, capped at limit (0 = no cap).
func MerchantSummaries(tagged []Tagged, limit int) []core.MerchantSummary {
	type acc struct {
		summary core.MerchantSummary
		months  map[string]struct{}
		amounts []int64
	}
	byMerchant := make(map[string]*acc)

	for _, t := range tagged {
		if excluded(t) || t.Tx.AmountMinor >= 0 {
			continue
		}
		key := t.Tx.MerchantKey
		if key == "" {
			key = core.NormalizeMerchant(t.Tx.MerchantRaw)
		}
		if key == "" {
			continue
		}
		entry, ok := byMerchant[key]
		if !ok {
			name := t.Tx.MerchantRaw
			if name == "" {
				name = t.Tx.Description
			}
			entry = &acc{
				summary: core.MerchantSummary{MerchantKey: key, MerchantName: name},
				months:  make(map[string]struct{}),
			}
			byMerchant[key] = entry
		}
		abs := -t.Tx.AmountMinor
		entry.summary.TotalSpendMinor += abs
		entry.summary.Transactions++
		entry.months[t.Tx.MonthKey()] = struct{}{}
		entry.amounts = append(entry.amounts, abs)
	}

	out := make([]core.MerchantSummary, 0, len(byMerchant))
	for _, entry := range byMerchant {
		s := entry.summary
		s.Months = len(entry.months)
		mean, cv := meanAndCV(entry.amounts)
		s.AvgAmountMinor = int64(math.Round(mean))
		s.IsRecurring = s.Months >= recurringMinMonths && cv <= recurringMaxCV
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSpendMinor != out[j].TotalSpendMinor {
			return out[i].TotalSpendMinor > out[j].TotalSpendMinor
		}
		return out[i].MerchantKey < out[j].MerchantKey
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func meanAndCV(amounts []int64) (mean, cv float64) {
	if len(amounts) == 0 {
		return 0, 0
	}
	var sum float64
	for _, a := range amounts {
		sum += float64(a)
	}
	mean = sum / float64(len(amounts))

	var variance float64
	for _, a := range amounts {
		d := float64(a) - mean
		variance += d * d
	}
	variance /= float64(len(amounts))

	if mean > 0 {
		cv = math.Sqrt(variance) / mean
	}
	return mean, cv
}
