package analytics

import (
	"testing"
	"time"

	"pennyflow/internal/core"
)

func marchRange() Range {
	return Range{
		Start: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestRangeDays(t *testing.T) {
	if got := marchRange().Days(); got != 31 {
		t.Errorf("march Days() = %d, want 31", got)
	}
	oneDay := Range{
		Start: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
	}
	if got := oneDay.Days(); got != 1 {
		t.Errorf("single day Days() = %d, want 1", got)
	}
	inverted := Range{Start: oneDay.End.AddDate(0, 0, 5), End: oneDay.End}
	if got := inverted.Days(); got != 1 {
		t.Errorf("inverted range Days() = %d, want 1", got)
	}
}

func TestDailySeriesZeroFills(t *testing.T) {
	tagged := []Tagged{
		tag(core.Transaction{ID: "t1", AmountMinor: -2500, TimestampMs: ms(2025, time.March, 3)}, "coffee", core.BucketDiscretionary),
		tag(core.Transaction{ID: "t2", AmountMinor: -1500, TimestampMs: ms(2025, time.March, 3)}, "coffee", core.BucketDiscretionary),
		// Inflows and excluded buckets never contribute to daily spend.
		tag(core.Transaction{ID: "t3", AmountMinor: 5000, TimestampMs: ms(2025, time.March, 4)}, "net_salary", core.BucketNetSalary),
		tag(core.Transaction{ID: "t4", AmountMinor: -9000, TimestampMs: ms(2025, time.March, 5)}, "bank_transfer", core.BucketBankTransfer),
		// Outside the range.
		tag(core.Transaction{ID: "t5", AmountMinor: -1000, TimestampMs: ms(2025, time.April, 1)}, "coffee", core.BucketDiscretionary),
	}

	out := DailySeries(tagged, marchRange())

	if len(out) != 31 {
		t.Fatalf("series length = %d, want 31", len(out))
	}
	if out[0].Day != "2025-03-01" || out[30].Day != "2025-03-31" {
		t.Errorf("series bounds = %q .. %q", out[0].Day, out[30].Day)
	}
	if out[2].AmountMinor != 4000 {
		t.Errorf("march 3 spend = %d, want 4000", out[2].AmountMinor)
	}
	for i, p := range out {
		if i != 2 && p.AmountMinor != 0 {
			t.Errorf("day %s spend = %d, want 0", p.Day, p.AmountMinor)
		}
	}
}

func TestMonthlyAggregates(t *testing.T) {
	tagged := []Tagged{
		tag(core.Transaction{ID: "t1", AmountMinor: -10000, TimestampMs: ms(2025, time.February, 10)}, "groceries", core.BucketMandatory),
		tag(core.Transaction{ID: "t2", AmountMinor: 300000, TimestampMs: ms(2025, time.February, 25)}, "net_salary", core.BucketNetSalary),
		tag(core.Transaction{ID: "t3", AmountMinor: -5000, TimestampMs: ms(2025, time.March, 2)}, "coffee", core.BucketDiscretionary),
		tag(core.Transaction{ID: "t4", AmountMinor: -7000, TimestampMs: ms(2025, time.March, 2)}, "bank_transfer", core.BucketBankTransfer),
	}

	out := MonthlyAggregates("owner-1", tagged)

	if len(out) != 2 {
		t.Fatalf("months = %d, want 2", len(out))
	}
	feb := out[0]
	if feb.MonthKey != "2025-02" {
		t.Fatalf("first month = %q, want 2025-02", feb.MonthKey)
	}
	if feb.Totals.Mandatory != 10000 || feb.Totals.Income != 300000 {
		t.Errorf("feb totals = %+v", feb.Totals)
	}
	if feb.NetMinor != 290000 {
		t.Errorf("feb net = %d, want 290000", feb.NetMinor)
	}
	mar := out[1]
	if mar.MonthKey != "2025-03" {
		t.Fatalf("second month = %q, want 2025-03", mar.MonthKey)
	}
	if mar.Totals.Discretionary != 5000 {
		t.Errorf("mar discretionary = %d, want 5000", mar.Totals.Discretionary)
	}
	if len(mar.ByCategory) != 1 || mar.ByCategory[0].Key != "coffee" {
		t.Errorf("mar categories = %+v", mar.ByCategory)
	}
}

func TestTotalsDebtCountsAsMandatory(t *testing.T) {
	tagged := []Tagged{
		tag(core.Transaction{ID: "t1", AmountMinor: -10000}, "groceries", core.BucketMandatory),
		tag(core.Transaction{ID: "t2", AmountMinor: -20000}, "car_loan", core.BucketDebtRepayment),
		tag(core.Transaction{ID: "t3", AmountMinor: -5000}, "retirement", core.BucketInvestment),
	}

	totals := Totals(tagged)

	if totals.Mandatory != 30000 {
		t.Errorf("mandatory = %d, want 30000", totals.Mandatory)
	}
	if totals.Savings != 5000 {
		t.Errorf("savings = %d, want 5000", totals.Savings)
	}
	if totals.Net() != -(30000 + 5000) {
		t.Errorf("net = %d", totals.Net())
	}
}

func TestBurndown(t *testing.T) {
	r := marchRange()
	today := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)

	// 100000 spent across the first ten days.
	tagged := []Tagged{
		tag(core.Transaction{ID: "t1", AmountMinor: -60000, TimestampMs: ms(2025, time.March, 2)}, "rent", core.BucketMandatory),
		tag(core.Transaction{ID: "t2", AmountMinor: -40000, TimestampMs: ms(2025, time.March, 9)}, "groceries", core.BucketMandatory),
		// After today: ignored for spend-to-date.
		tag(core.Transaction{ID: "t3", AmountMinor: -99999, TimestampMs: ms(2025, time.March, 20)}, "rent", core.BucketMandatory),
	}

	out := Burndown(tagged, r, today, 310000)

	if len(out) != 31 {
		t.Fatalf("points = %d, want 31", len(out))
	}

	day10 := out[9]
	if day10.Budget != 100000 {
		t.Errorf("budget line day 10 = %d, want 100000", day10.Budget)
	}
	if day10.Actual == nil || *day10.Actual != 100000 {
		t.Errorf("actual day 10 = %v, want 100000", day10.Actual)
	}
	if day10.Projected != nil {
		t.Error("day 10 should not carry a projection")
	}

	day11 := out[10]
	if day11.Actual != nil {
		t.Error("day 11 should not carry an actual")
	}
	if day11.Projected == nil || *day11.Projected != 110000 {
		t.Errorf("projected day 11 = %v, want 110000", day11.Projected)
	}

	day31 := out[30]
	if day31.Budget != 310000 {
		t.Errorf("budget line day 31 = %d, want 310000", day31.Budget)
	}
	if day31.Projected == nil || *day31.Projected != 310000 {
		t.Errorf("projected day 31 = %v, want 310000", day31.Projected)
	}
}

// With no elapsed days the projection cannot extrapolate a slope; it degrades
// to the flat spend-so-far value.
func TestBurndownNoElapsedDays(t *testing.T) {
	r := marchRange()
	today := time.Date(2025, time.February, 20, 0, 0, 0, 0, time.UTC)

	out := Burndown(nil, r, today, 31000)

	for _, p := range out {
		if p.Actual != nil {
			t.Fatalf("day %d carries an actual before the range starts", p.Day)
		}
		if p.Projected == nil || *p.Projected != 0 {
			t.Fatalf("day %d projected = %v, want 0", p.Day, p.Projected)
		}
	}
	if out[0].Budget != 1000 {
		t.Errorf("budget line day 1 = %d, want 1000", out[0].Budget)
	}
}
