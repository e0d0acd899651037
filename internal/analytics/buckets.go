package analytics

import (
	"sort"

	"pennyflow/internal/core"
)

// RollupBuckets derives the effective budget amount for every category with a
// budget entry, groups by bucket and sums budgets and actuals. Categories
// whose bucket falls outside the closed set land in the synthetic Unassigned
// bucket instead of being dropped.
//
// Output order is fixed (closed set order, Unassigned last) so repeated runs
// over the same input serialize identically.
func RollupBuckets(categories []core.Category, cfg core.BudgetConfig, tagged []Tagged) []core.BucketBudget {
	budgets := make(map[core.Bucket]*core.BucketBudget)

	get := func(b core.Bucket) *core.BucketBudget {
		if !b.Valid() {
			b = core.BucketUnassigned
		}
		entry, ok := budgets[b]
		if !ok {
			entry = &core.BucketBudget{Bucket: b, Label: b.Label()}
			budgets[b] = entry
		}
		return entry
	}

	catBucket := make(map[string]core.Bucket, len(categories))
	for _, cat := range categories {
		catBucket[cat.Key] = cat.Bucket
		amount := cfg.EffectiveAmountMinor(cat)
		if amount == 0 {
			continue
		}
		entry := get(cat.Bucket)
		entry.BudgetMinor += amount
		entry.Categories++
	}

	// Standalone bucket-level amounts from the configuration, for buckets
	// without per-category targets.
	for b, amount := range cfg.ByBucket {
		if amount == 0 {
			continue
		}
		get(b).BudgetMinor += amount
	}

	for _, t := range tagged {
		if excluded(t) {
			continue
		}
		bucket, ok := catBucket[t.Res.CategoryKey]
		if !ok {
			bucket = t.Res.Bucket
		}
		get(bucket).ActualMinor += core.Money{Minor: t.Tx.AmountMinor}.Abs()
	}

	out := make([]core.BucketBudget, 0, len(budgets))
	for _, b := range core.AllBuckets {
		if entry, ok := budgets[b]; ok {
			out = append(out, *entry)
		}
	}
	if entry, ok := budgets[core.BucketUnassigned]; ok {
		out = append(out, *entry)
	}
	return out
}

// CategoryTotals sums absolute amounts and counts per resolved category,
// sorted by descending amount with key as tie-break.
func CategoryTotals(tagged []Tagged) []core.CategoryTotal {
	totals := make(map[string]*core.CategoryTotal)
	for _, t := range tagged {
		if excluded(t) {
			continue
		}
		entry, ok := totals[t.Res.CategoryKey]
		if !ok {
			entry = &core.CategoryTotal{
				Key:    t.Res.CategoryKey,
				Label:  t.Res.CategoryLabel,
				Bucket: t.Res.Bucket,
			}
			totals[t.Res.CategoryKey] = entry
		}
		entry.AmountMinor += core.Money{Minor: t.Tx.AmountMinor}.Abs()
		entry.Count++
	}

	out := make([]core.CategoryTotal, 0, len(totals))
	for _, entry := range totals {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AmountMinor != out[j].AmountMinor {
			return out[i].AmountMinor > out[j].AmountMinor
		}
		return out[i].Key < out[j].Key
	})
	return out
}
