package mappings

import (
	"pennyflow/internal/core"
)

// Export is the JSON export document for an owner's mapping and budget state.
type Export struct {
	MerchantToCategory map[string]string      `json:"merchantToCategory"`
	CategoryToBucket   map[string]core.Bucket `json:"categoryToBucket"`
	Buckets            map[core.Bucket]int64  `json:"buckets"`
}

// BuildExport assembles the export document from the owner's rule table,
// category table and budget configuration.
func BuildExport(rules []core.MerchantRule, categories []core.Category, cfg core.BudgetConfig) Export {
	out := Export{
		MerchantToCategory: make(map[string]string, len(rules)),
		CategoryToBucket:   make(map[string]core.Bucket, len(categories)),
		Buckets:            make(map[core.Bucket]int64),
	}
	for _, r := range rules {
		out.MerchantToCategory[r.MerchantKey] = r.CategoryKey
	}
	for _, c := range categories {
		bucket := c.Bucket
		if !bucket.Valid() {
			bucket = core.BucketUnassigned
		}
		out.CategoryToBucket[c.Key] = bucket
		if amount := cfg.EffectiveAmountMinor(c); amount != 0 {
			out.Buckets[bucket] += amount
		}
	}
	for b, amount := range cfg.ByBucket {
		if amount != 0 {
			out.Buckets[b] += amount
		}
	}
	return out
}
