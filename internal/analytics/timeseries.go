package analytics

import (
	"math"
	"sort"
	"time"

	"pennyflow/internal/core"
)

// Range is an inclusive calendar date range.
type Range struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days in the range, minimum 1.
func (r Range) Days() int {
	start := truncateDay(r.Start)
	end := truncateDay(r.End)
	d := int(end.Sub(start).Hours()/24) + 1
	if d < 1 {
		return 1
	}
	return d
}

// contains reports whether ts falls inside the range.
func (r Range) contains(ts time.Time) bool {
	day := truncateDay(ts)
	return !day.Before(truncateDay(r.Start)) && !day.After(truncateDay(r.End))
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DailySeries produces one point per calendar day in the range, summing
// absolute outflow. Days with no spend still appear with a zero amount.
func DailySeries(tagged []Tagged, r Range) []core.DailySpend {
	byDay := make(map[string]int64)
	for _, t := range tagged {
		if excluded(t) {
			continue
		}
		if t.Tx.AmountMinor >= 0 {
			continue
		}
		if !r.contains(t.Tx.Time()) {
			continue
		}
		byDay[t.Tx.DayKey()] += -t.Tx.AmountMinor
	}

	days := r.Days()
	out := make([]core.DailySpend, 0, days)
	cursor := truncateDay(r.Start)
	for i := 0; i < days; i++ {
		key := cursor.Format("2006-01-02")
		out = append(out, core.DailySpend{Day: key, AmountMinor: byDay[key]})
		cursor = cursor.AddDate(0, 0, 1)
	}
	return out
}

// MonthlyAggregates builds the per-month rollup totals and category rows for
// every month that has at least one non-excluded transaction, sorted by month
// key.
func MonthlyAggregates(ownerID string, tagged []Tagged) []core.MonthlyAggregate {
	byMonth := make(map[string][]Tagged)
	for _, t := range tagged {
		if excluded(t) {
			continue
		}
		key := t.Tx.MonthKey()
		byMonth[key] = append(byMonth[key], t)
	}

	months := make([]string, 0, len(byMonth))
	for key := range byMonth {
		months = append(months, key)
	}
	sort.Strings(months)

	out := make([]core.MonthlyAggregate, 0, len(months))
	for _, key := range months {
		agg := core.MonthlyAggregate{OwnerID: ownerID, MonthKey: key}
		for _, t := range byMonth[key] {
			agg.Totals.Add(t.Res.Bucket.Rollup(), core.Money{Minor: t.Tx.AmountMinor}.Abs())
		}
		agg.NetMinor = agg.Totals.Net()
		agg.ByCategory = CategoryTotals(byMonth[key])
		out = append(out, agg)
	}
	return out
}

// Totals sums the four rollup totals across all non-excluded transactions.
func Totals(tagged []Tagged) core.RollupTotals {
	var totals core.RollupTotals
	for _, t := range tagged {
		if excluded(t) {
			continue
		}
		totals.Add(t.Res.Bucket.Rollup(), core.Money{Minor: t.Tx.AmountMinor}.Abs())
	}
	return totals
}

// Burndown builds the straight-line budget versus actual/projected spend
// series for a range.
//
// For day i of D: budgetLine(i) = B/D*i. Actual spend is interpolated from
// spend-to-date up to the elapsed-day index E; beyond E the same slope is
// extrapolated as a projection, leaving a visible seam at E. When E is zero
// the projection degrades to the spend-so-far constant to avoid dividing by
// zero.
func Burndown(tagged []Tagged, r Range, today time.Time, budgetMinor int64) []core.BurndownPoint {
	days := r.Days()

	elapsed := int(truncateDay(today).Sub(truncateDay(r.Start)).Hours()/24) + 1
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > days {
		elapsed = days
	}

	var spendSoFar int64
	for _, t := range tagged {
		if excluded(t) || t.Tx.AmountMinor >= 0 {
			continue
		}
		ts := t.Tx.Time()
		if !r.contains(ts) || truncateDay(ts).After(truncateDay(today)) {
			continue
		}
		spendSoFar += -t.Tx.AmountMinor
	}

	out := make([]core.BurndownPoint, 0, days)
	for i := 1; i <= days; i++ {
		point := core.BurndownPoint{
			Day:    i,
			Budget: int64(math.Round(float64(budgetMinor) / float64(days) * float64(i))),
		}
		var value int64
		if elapsed == 0 {
			value = spendSoFar
		} else {
			value = int64(math.Round(float64(spendSoFar) / float64(elapsed) * float64(i)))
		}
		if i <= elapsed {
			v := value
			point.Actual = &v
		} else {
			v := value
			point.Projected = &v
		}
		out = append(out, point)
	}
	return out
}
