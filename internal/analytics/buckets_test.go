package analytics

import (
	"testing"
	"time"

	"pennyflow/internal/core"
	"pennyflow/internal/resolve"
)

func tag(tx core.Transaction, key string, bucket core.Bucket) Tagged {
	return Tagged{
		Tx:  tx,
		Res: resolve.Resolution{CategoryKey: key, CategoryLabel: key, Bucket: bucket},
	}
}

func ms(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC).UnixMilli()
}

func TestRollupBucketsSumsBudgetsAndActuals(t *testing.T) {
	categories := []core.Category{
		{Key: "groceries", Bucket: core.BucketMandatory, BudgetPercent: 15},
		{Key: "rent", Bucket: core.BucketMandatory, BudgetPercent: 25},
		{Key: "coffee", Bucket: core.BucketDiscretionary, BudgetPercent: 2},
	}
	cfg := core.BudgetConfig{MonthlyIncomeMinor: 300000}

	tagged := []Tagged{
		tag(core.Transaction{ID: "t1", AmountMinor: -4500}, "groceries", core.BucketMandatory),
		tag(core.Transaction{ID: "t2", AmountMinor: -90000}, "rent", core.BucketMandatory),
		tag(core.Transaction{ID: "t3", AmountMinor: -350}, "coffee", core.BucketDiscretionary),
	}

	out := RollupBuckets(categories, cfg, tagged)

	if len(out) != 2 {
		t.Fatalf("bucket rows = %d, want 2", len(out))
	}
	mandatory := out[0]
	if mandatory.Bucket != core.BucketMandatory {
		t.Fatalf("first bucket = %q, want mandatory", mandatory.Bucket)
	}
	if mandatory.BudgetMinor != 45000+75000 {
		t.Errorf("mandatory budget = %d, want 120000", mandatory.BudgetMinor)
	}
	if mandatory.ActualMinor != 94500 {
		t.Errorf("mandatory actual = %d, want 94500", mandatory.ActualMinor)
	}
	if mandatory.Categories != 2 {
		t.Errorf("mandatory categories = %d, want 2", mandatory.Categories)
	}
	if out[1].Bucket != core.BucketDiscretionary {
		t.Errorf("second bucket = %q, want discretionary", out[1].Bucket)
	}
}

func TestRollupBucketsExcludesTransfersAndUnknown(t *testing.T) {
	categories := []core.Category{
		{Key: "bank_transfer", Bucket: core.BucketBankTransfer},
		{Key: core.UnknownCategoryKey, Bucket: core.BucketUnknown},
		{Key: "groceries", Bucket: core.BucketMandatory},
	}

	tagged := []Tagged{
		tag(core.Transaction{ID: "t1", AmountMinor: -100000}, "bank_transfer", core.BucketBankTransfer),
		tag(core.Transaction{ID: "t2", AmountMinor: -5000}, core.UnknownCategoryKey, core.BucketUnknown),
		tag(core.Transaction{ID: "t3", AmountMinor: -2000}, "groceries", core.BucketMandatory),
	}

	out := RollupBuckets(categories, core.BudgetConfig{}, tagged)

	for _, row := range out {
		if row.Bucket == core.BucketBankTransfer || row.Bucket == core.BucketUnknown {
			if row.ActualMinor != 0 {
				t.Errorf("excluded bucket %q carries actual %d", row.Bucket, row.ActualMinor)
			}
		}
	}
	var total int64
	for _, row := range out {
		total += row.ActualMinor
	}
	if total != 2000 {
		t.Errorf("total actual = %d, want 2000", total)
	}
}

// Categories with a bucket outside the closed set land in Unassigned, which
// always sorts after the closed buckets.
func TestRollupBucketsUnassignedLast(t *testing.T) {
	categories := []core.Category{
		{Key: "groceries", Bucket: core.BucketMandatory},
		{Key: "mystery", Bucket: core.Bucket("weird")},
	}

	tagged := []Tagged{
		tag(core.Transaction{ID: "t1", AmountMinor: -2000}, "groceries", core.BucketMandatory),
		tag(core.Transaction{ID: "t2", AmountMinor: -3000}, "mystery", core.Bucket("weird")),
	}
	cfg := core.BudgetConfig{ByBucket: map[core.Bucket]int64{core.BucketMandatory: 10000}}

	out := RollupBuckets(categories, cfg, tagged)

	if len(out) != 2 {
		t.Fatalf("bucket rows = %d, want 2", len(out))
	}
	last := out[len(out)-1]
	if last.Bucket != core.BucketUnassigned {
		t.Fatalf("last bucket = %q, want unassigned", last.Bucket)
	}
	if last.ActualMinor != 3000 {
		t.Errorf("unassigned actual = %d, want 3000", last.ActualMinor)
	}
	if out[0].BudgetMinor != 10000 {
		t.Errorf("bucket-level budget = %d, want 10000", out[0].BudgetMinor)
	}
}

func TestCategoryTotalsSortedByAmount(t *testing.T) {
	tagged := []Tagged{
		tag(core.Transaction{ID: "t1", AmountMinor: -1000}, "coffee", core.BucketDiscretionary),
		tag(core.Transaction{ID: "t2", AmountMinor: -5000}, "groceries", core.BucketMandatory),
		tag(core.Transaction{ID: "t3", AmountMinor: -500}, "coffee", core.BucketDiscretionary),
		tag(core.Transaction{ID: "t4", AmountMinor: -9999}, "bank_transfer", core.BucketBankTransfer),
	}

	out := CategoryTotals(tagged)

	if len(out) != 2 {
		t.Fatalf("category rows = %d, want 2", len(out))
	}
	if out[0].Key != "groceries" || out[0].AmountMinor != 5000 {
		t.Errorf("first row = %+v, want groceries 5000", out[0])
	}
	if out[1].Key != "coffee" || out[1].AmountMinor != 1500 || out[1].Count != 2 {
		t.Errorf("second row = %+v, want coffee 1500 x2", out[1])
	}
}
