// Package resolve assigns categories to transactions using the owner's rule
// tables. The tables are passed in explicitly; the resolver holds no ambient
// state and is safe to rebuild per snapshot.
package resolve

import (
	"strings"

	"pennyflow/internal/core"
)

// Source records which step of the precedence chain produced a resolution.
type Source string

const (
	SourceOverride Source = "override"
	SourceRule     Source = "rule"
	SourcePattern  Source = "pattern"
	SourceFallback Source = "fallback"
)

// Resolution is the outcome of categorizing one transaction.
type Resolution struct {
	CategoryKey   string
	CategoryLabel string
	Bucket        core.Bucket
	Source        Source
}

// Resolver resolves transactions against a point-in-time snapshot of the
// owner's merchant rules and category table.
type Resolver struct {
	categories []core.Category
	byKey      map[string]core.Category
	rules      map[string]core.MerchantRule
}

// New builds a resolver. The category slice keeps its declaration order,
// which decides pattern-match ties: first match wins.
func New(categories []core.Category, rules []core.MerchantRule) *Resolver {
	r := &Resolver{
		categories: categories,
		byKey:      make(map[string]core.Category, len(categories)),
		rules:      make(map[string]core.MerchantRule, len(rules)),
	}
	for _, c := range categories {
		r.byKey[c.Key] = c
	}
	for _, rule := range rules {
		r.rules[rule.MerchantKey] = rule
	}
	return r
}

// Resolve returns the effective category for a transaction.
//
// Precedence, highest first:
//  1. the transaction's own UserCategoryKey
//  2. an exact merchant-key match in the rule table
//  3. the first category whose pattern list contains a substring of the
//     normalized merchant key, in declaration order
//  4. the unknown category
func (r *Resolver) Resolve(tx core.Transaction) Resolution {
	if tx.UserCategoryKey != "" {
		if cat, ok := r.byKey[tx.UserCategoryKey]; ok {
			return Resolution{CategoryKey: cat.Key, CategoryLabel: cat.Label, Bucket: cat.Bucket, Source: SourceOverride}
		}
		// Override set to a key the table no longer has: honour the override,
		// bucket falls back to unknown.
		return Resolution{CategoryKey: tx.UserCategoryKey, CategoryLabel: tx.UserCategoryKey, Bucket: core.BucketUnknown, Source: SourceOverride}
	}

	key := tx.MerchantKey
	if key == "" {
		key = core.NormalizeMerchant(tx.MerchantRaw)
	}

	if key != "" {
		if rule, ok := r.rules[key]; ok {
			bucket := rule.CategoryType
			label := rule.CategoryLabel
			if cat, ok := r.byKey[rule.CategoryKey]; ok {
				bucket = cat.Bucket
				if label == "" {
					label = cat.Label
				}
			}
			return Resolution{CategoryKey: rule.CategoryKey, CategoryLabel: label, Bucket: bucket, Source: SourceRule}
		}

		if res, ok := r.matchPattern(key); ok {
			return res
		}
	}

	return r.fallback()
}

func (r *Resolver) matchPattern(merchantKey string) (Resolution, bool) {
	for _, cat := range r.categories {
		for _, pattern := range cat.MerchantPatterns {
			if pattern == "" {
				continue
			}
			if strings.Contains(merchantKey, pattern) {
				return Resolution{CategoryKey: cat.Key, CategoryLabel: cat.Label, Bucket: cat.Bucket, Source: SourcePattern}, true
			}
		}
	}
	return Resolution{}, false
}

func (r *Resolver) fallback() Resolution {
	if cat, ok := r.byKey[core.UnknownCategoryKey]; ok {
		return Resolution{CategoryKey: cat.Key, CategoryLabel: cat.Label, Bucket: cat.Bucket, Source: SourceFallback}
	}
	return Resolution{CategoryKey: core.UnknownCategoryKey, CategoryLabel: "Unknown", Bucket: core.BucketUnknown, Source: SourceFallback}
}
