package core

import "strings"

const (
	BucketMandatory       Bucket = "mandatory"
	BucketDiscretionary   Bucket = "discretionary"
	BucketShortSaving     Bucket = "short_saving"
	BucketLongSaving      Bucket = "long_saving"
	BucketInvestment      Bucket = "investment"
	BucketNetSalary       Bucket = "net_salary"
	BucketIrregularIncome Bucket = "irregular_income"
	BucketBankTransfer    Bucket = "bank_transfer"
	BucketDebtRepayment   Bucket = "debt_repayment"
	BucketUnknown         Bucket = "unknown"

	// BucketUnassigned is a derived pseudo-bucket for categories whose bucket
	// mapping is missing or not in the closed set. It is never stored on a
	// category directly.
	BucketUnassigned Bucket = "unassigned"
)

// Bucket is the coarse financial grouping a category rolls up into.
// The set is closed; anything else resolves to BucketUnassigned at rollup time.
type Bucket string

var bucketLabels = map[Bucket]string{
	BucketMandatory:       "Mandatory Expenses",
	BucketDiscretionary:   "Discretionary Expenses",
	BucketShortSaving:     "Short Term Saving",
	BucketLongSaving:      "Long Term Saving",
	BucketInvestment:      "Investment",
	BucketNetSalary:       "Net Salary",
	BucketIrregularIncome: "Irregular Income",
	BucketBankTransfer:    "Bank Transfer",
	BucketDebtRepayment:   "Debt Repayment",
	BucketUnknown:         "Unknown",
	BucketUnassigned:      "Unassigned",
}

// AllBuckets lists the closed set in a stable order, used for deterministic
// rollup output. BucketUnassigned is excluded; it only appears when derived.
var AllBuckets = []Bucket{
	BucketMandatory,
	BucketDiscretionary,
	BucketShortSaving,
	BucketLongSaving,
	BucketInvestment,
	BucketNetSalary,
	BucketIrregularIncome,
	BucketBankTransfer,
	BucketDebtRepayment,
	BucketUnknown,
}

// ParseBucket maps a raw string to a Bucket, tolerating case and surrounding
// whitespace plus a few legacy aliases. Unrecognised values come back as
// BucketUnassigned so callers never drop data on a bad mapping.
func ParseBucket(raw string) Bucket {
	b := Bucket(strings.ToLower(strings.TrimSpace(raw)))
	switch b {
	case BucketMandatory, BucketDiscretionary, BucketShortSaving, BucketLongSaving,
		BucketInvestment, BucketNetSalary, BucketIrregularIncome, BucketBankTransfer,
		BucketDebtRepayment, BucketUnknown:
		return b
	case "optional":
		return BucketDiscretionary
	case "savings":
		return BucketShortSaving
	case "income":
		return BucketNetSalary
	}
	return BucketUnassigned
}

// Valid reports whether b belongs to the closed bucket set.
func (b Bucket) Valid() bool {
	switch b {
	case BucketMandatory, BucketDiscretionary, BucketShortSaving, BucketLongSaving,
		BucketInvestment, BucketNetSalary, BucketIrregularIncome, BucketBankTransfer,
		BucketDebtRepayment, BucketUnknown:
		return true
	}
	return false
}

// Label returns the display label for the bucket.
func (b Bucket) Label() string {
	if l, ok := bucketLabels[b]; ok {
		return l
	}
	return bucketLabels[BucketUnassigned]
}

// Excluded reports whether transactions under this bucket are left out of
// analytic totals. Internal transfers would double-count pot movements as
// spend, and unknown rows have no meaningful side.
func (b Bucket) Excluded() bool {
	return b == BucketBankTransfer || b == BucketUnknown
}

// Rollup groups the fine buckets into the four dashboard totals.
// Debt repayment counts as mandatory outflow. Excluded buckets return
// RollupNone.
func (b Bucket) Rollup() Rollup {
	switch b {
	case BucketMandatory, BucketDebtRepayment:
		return RollupMandatory
	case BucketDiscretionary:
		return RollupDiscretionary
	case BucketShortSaving, BucketLongSaving, BucketInvestment:
		return RollupSavings
	case BucketNetSalary, BucketIrregularIncome:
		return RollupIncome
	}
	return RollupNone
}

// Rollup is one of the four coarse totals shown on the dashboard.
type Rollup string

const (
	RollupMandatory     Rollup = "mandatory"
	RollupDiscretionary Rollup = "discretionary"
	RollupSavings       Rollup = "savings"
	RollupIncome        Rollup = "income"
	RollupNone          Rollup = ""
)
