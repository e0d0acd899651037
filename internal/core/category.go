package core

// Category is a fine-grained spending label with its rollup bucket and
// optional budget target. MerchantPatterns are lowercase substrings matched
// against normalized merchant keys during auto-categorization.
type Category struct {
	Key               string
	Label             string
	Bucket            Bucket
	BudgetPercent     float64 // percent of monthly income; 0 = unset
	BudgetAmountMinor int64   // fixed fallback amount in minor units; 0 = unset
	MerchantPatterns  []string
	IsDefault         bool
}

// UnknownCategoryKey is the fallback when no rule or pattern matches.
const UnknownCategoryKey = "unknown"

// DefaultCategories is the stock taxonomy every owner starts from. Order
// matters: pattern resolution scans in declaration order and the first match
// wins, so broader patterns belong after narrower ones.
var DefaultCategories = []Category{
	// Income
	{Key: "net_salary", Label: "Net Salary", Bucket: BucketNetSalary, BudgetPercent: 100, IsDefault: true},
	{Key: "bonus", Label: "Bonus", Bucket: BucketIrregularIncome, IsDefault: true},
	{Key: "gift_income", Label: "Gift Income", Bucket: BucketIrregularIncome, IsDefault: true},
	{Key: "side_gig", Label: "Side Gig", Bucket: BucketIrregularIncome, IsDefault: true},
	{Key: "refund", Label: "Refund", Bucket: BucketIrregularIncome, IsDefault: true},
	{Key: "repayment", Label: "Repayment", Bucket: BucketIrregularIncome, IsDefault: true},

	// Mandatory expenses
	{
		Key: "groceries", Label: "Groceries", Bucket: BucketMandatory, BudgetPercent: 15, IsDefault: true,
		MerchantPatterns: []string{"tesco", "sainsbury", "asda", "aldi", "lidl", "waitrose", "morrisons", "m s food"},
	},
	{Key: "mortgage", Label: "Mortgage Repayment", Bucket: BucketMandatory, BudgetPercent: 25, IsDefault: true},
	{Key: "rent", Label: "Rent", Bucket: BucketMandatory, BudgetPercent: 25, IsDefault: true},
	{Key: "rates", Label: "Rates", Bucket: BucketMandatory, BudgetPercent: 2, IsDefault: true},
	{Key: "home_insurance", Label: "Home Insurance", Bucket: BucketMandatory, BudgetPercent: 1, IsDefault: true},
	{Key: "car_insurance", Label: "Car Insurance", Bucket: BucketMandatory, BudgetPercent: 2, IsDefault: true},
	{
		Key: "broadband", Label: "Broadband", Bucket: BucketMandatory, BudgetPercent: 1, IsDefault: true,
		MerchantPatterns: []string{"virgin media", "talktalk", "plusnet"},
	},
	{
		Key: "mobile_bill", Label: "Mobile Bill Payment", Bucket: BucketMandatory, BudgetPercent: 1, IsDefault: true,
		MerchantPatterns: []string{"vodafone", "giffgaff", "o2"},
	},
	{
		Key: "home_electricity", Label: "Home Electricity", Bucket: BucketMandatory, BudgetPercent: 2, IsDefault: true,
		MerchantPatterns: []string{"british gas", "octopus energy", "edf", "bulb"},
	},
	{Key: "home_heating", Label: "Home Heating", Bucket: BucketMandatory, BudgetPercent: 2, IsDefault: true},
	{
		Key: "petrol", Label: "Petrol", Bucket: BucketMandatory, BudgetPercent: 3, IsDefault: true,
		MerchantPatterns: []string{"shell", "esso", "texaco", "sainsbury fuel", "tesco fuel"},
	},
	{Key: "car_tax", Label: "Car Tax", Bucket: BucketMandatory, BudgetPercent: 1, IsDefault: true},
	{
		Key: "car_maintenance", Label: "Car Maintenance", Bucket: BucketMandatory, BudgetPercent: 1, IsDefault: true,
		MerchantPatterns: []string{"kwik fit", "halfords"},
	},
	{
		Key: "personal_care", Label: "Personal Care", Bucket: BucketMandatory, BudgetPercent: 2, IsDefault: true,
		MerchantPatterns: []string{"boots", "superdrug"},
	},
	{Key: "gifts", Label: "Gifts", Bucket: BucketMandatory, BudgetPercent: 2, IsDefault: true},
	{Key: "tv_licence", Label: "TV Licence", Bucket: BucketMandatory, BudgetPercent: 0.5, IsDefault: true},
	{
		Key: "home", Label: "Home", Bucket: BucketMandatory, BudgetPercent: 2, IsDefault: true,
		MerchantPatterns: []string{"ikea", "argos", "homebase", "b q", "wickes"},
	},

	// Discretionary
	{
		Key: "eating_out", Label: "Eating Out", Bucket: BucketDiscretionary, BudgetPercent: 5, IsDefault: true,
		MerchantPatterns: []string{"nando", "mcdonald", "kfc", "pizza hut", "domino", "subway", "greggs", "restaurant"},
	},
	{
		Key: "coffee", Label: "Coffee", Bucket: BucketDiscretionary, BudgetPercent: 2, IsDefault: true,
		MerchantPatterns: []string{"starbucks", "costa", "caffe nero", "pret a manger"},
	},
	{
		Key: "cinema", Label: "Cinema", Bucket: BucketDiscretionary, BudgetPercent: 1, IsDefault: true,
		MerchantPatterns: []string{"odeon", "cineworld", "picturehouse"},
	},
	{
		Key: "gym", Label: "Gym", Bucket: BucketDiscretionary, BudgetPercent: 2, IsDefault: true,
		MerchantPatterns: []string{"puregym", "fitness first", "virgin active", "david lloyd"},
	},
	{
		Key: "clothes", Label: "Clothes", Bucket: BucketDiscretionary, BudgetPercent: 3, IsDefault: true,
		MerchantPatterns: []string{"primark", "uniqlo", "tk maxx", "sports direct", "jd sports", "h m", "zara"},
	},
	{
		Key: "going_out", Label: "Going Out", Bucket: BucketDiscretionary, BudgetPercent: 3, IsDefault: true,
		MerchantPatterns: []string{"wetherspoon", "brewdog", "pub", "bar"},
	},
	{
		Key: "gaming", Label: "Gaming", Bucket: BucketDiscretionary, BudgetPercent: 2, IsDefault: true,
		MerchantPatterns: []string{"steam", "playstation", "nintendo", "xbox"},
	},
	{
		Key: "online_subscription", Label: "Online Subscription", Bucket: BucketDiscretionary, BudgetPercent: 2, IsDefault: true,
		MerchantPatterns: []string{"netflix", "spotify", "amazon prime", "disney", "apple music", "amazon"},
	},
	{
		Key: "travel", Label: "Travel", Bucket: BucketDiscretionary, BudgetPercent: 5, IsDefault: true,
		MerchantPatterns: []string{"ryanair", "easyjet", "booking com", "airbnb", "trainline"},
	},
	{
		Key: "taxi", Label: "Taxi", Bucket: BucketDiscretionary, BudgetPercent: 1, IsDefault: true,
		MerchantPatterns: []string{"uber", "bolt", "taxi"},
	},
	{
		Key: "car_parking", Label: "Car Parking", Bucket: BucketDiscretionary, BudgetPercent: 1, IsDefault: true,
		MerchantPatterns: []string{"parking", "ncp"},
	},
	{Key: "charity", Label: "Charity", Bucket: BucketDiscretionary, BudgetPercent: 1, IsDefault: true},
	{
		Key: "pet_dog", Label: "Pet/Dog", Bucket: BucketDiscretionary, BudgetPercent: 2, IsDefault: true,
		MerchantPatterns: []string{"pets at home", "vets4pets", "vet"},
	},

	// Debt repayment
	{Key: "car_loan", Label: "Car Loan Repayment", Bucket: BucketDebtRepayment, BudgetPercent: 5, IsDefault: true},
	{Key: "credit_card_interest", Label: "Credit Card Interest", Bucket: BucketDebtRepayment, IsDefault: true},

	// Saving and investment
	{Key: "short_term_general", Label: "Short Term Saving", Bucket: BucketShortSaving, BudgetPercent: 5, IsDefault: true},
	{Key: "emergency_fund", Label: "Emergency Fund", Bucket: BucketShortSaving, BudgetPercent: 10, IsDefault: true},
	{Key: "long_home", Label: "Long Term Saving - Home", Bucket: BucketLongSaving, IsDefault: true},
	{Key: "long_safety_net", Label: "Long Term Saving - Safety Net", Bucket: BucketLongSaving, IsDefault: true},
	{Key: "investment_traditional", Label: "Investment Traditional", Bucket: BucketInvestment, BudgetPercent: 5, IsDefault: true},
	{Key: "retirement", Label: "Retirement", Bucket: BucketInvestment, BudgetPercent: 10, IsDefault: true},

	// Transfers
	{Key: "bank_transfer", Label: "Bank Transfer", Bucket: BucketBankTransfer, IsDefault: true,
		MerchantPatterns: []string{"pot transfer", "transfer"}},
	{Key: "banking_fee", Label: "Banking Fee", Bucket: BucketBankTransfer, IsDefault: true},

	// Unknown
	{Key: UnknownCategoryKey, Label: "Unknown", Bucket: BucketUnknown, IsDefault: true},
	{Key: "uncategorised_cash", Label: "Uncategorised Cash Withdrawal", Bucket: BucketUnknown, IsDefault: true},
	{Key: "work_expense", Label: "Work Expense (Reimbursed)", Bucket: BucketUnknown, IsDefault: true},
}

// MergeCategories overlays owner-defined categories onto the defaults.
// Matching keys are replaced field-wise by the custom entry; new keys are
// appended after the defaults so declaration-order pattern matching stays
// stable for the stock table.
func MergeCategories(custom []Category) []Category {
	merged := make([]Category, len(DefaultCategories))
	copy(merged, DefaultCategories)

	index := make(map[string]int, len(merged))
	for i, c := range merged {
		index[c.Key] = i
	}

	for _, c := range custom {
		if c.Key == "" {
			continue
		}
		if i, ok := index[c.Key]; ok {
			merged[i] = overlayCategory(merged[i], c)
			continue
		}
		index[c.Key] = len(merged)
		merged = append(merged, c)
	}
	return merged
}

func overlayCategory(base, custom Category) Category {
	out := base
	if custom.Label != "" {
		out.Label = custom.Label
	}
	if custom.Bucket != "" {
		out.Bucket = custom.Bucket
	}
	if custom.BudgetPercent != 0 {
		out.BudgetPercent = custom.BudgetPercent
	}
	if custom.BudgetAmountMinor != 0 {
		out.BudgetAmountMinor = custom.BudgetAmountMinor
	}
	if len(custom.MerchantPatterns) > 0 {
		out.MerchantPatterns = custom.MerchantPatterns
	}
	out.IsDefault = base.IsDefault && custom.IsDefault
	return out
}

// CategoryByKey finds a category in the given table. Returns false when the
// key is absent.
func CategoryByKey(categories []Category, key string) (Category, bool) {
	for _, c := range categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}
