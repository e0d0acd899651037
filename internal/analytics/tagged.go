// Package analytics turns tagged transactions, the category table and the
// budget configuration into the derived aggregates the dashboards consume.
// Everything here is pure computation over a point-in-time snapshot; output
// ordering is deterministic so identical input produces byte-identical
// aggregates.
package analytics

import (
	"pennyflow/internal/core"
	"pennyflow/internal/resolve"
)

// Tagged pairs a transaction with its category resolution.
type Tagged struct {
	Tx  core.Transaction
	Res resolve.Resolution
}

// Tag resolves every transaction against the resolver.
func Tag(txs []core.Transaction, r *resolve.Resolver) []Tagged {
	tagged := make([]Tagged, len(txs))
	for i, tx := range txs {
		tagged[i] = Tagged{Tx: tx, Res: r.Resolve(tx)}
	}
	return tagged
}

// excluded reports whether a tagged transaction stays out of analytic totals.
// The rule is applied here once so every total, chart and breakdown agrees.
func excluded(t Tagged) bool {
	return t.Res.Bucket.Excluded()
}
