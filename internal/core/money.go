// Package core holds the engine's domain model: buckets, categories, merchant
// rules, budget configuration and transactions. Amounts are always integer
// minor units (pence); floating point only appears for percentages.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in integer minor units. Sign convention follows the
// transaction feed: negative is outflow, positive is inflow.
type Money struct {
	Minor int64
}

// Abs returns the absolute amount in minor units.
func (m Money) Abs() int64 {
	if m.Minor < 0 {
		return -m.Minor
	}
	return m.Minor
}

// Major returns the major-unit value as a float64 for display only.
// Calculations must stay in minor units.
func (m Money) Major() float64 {
	return float64(m.Minor) / 100.0
}

// BudgetAmountMinor converts a percent-of-income budget target to minor units
// using half-up rounding at the minor-unit boundary.
func BudgetAmountMinor(percent float64, incomeMinor int64) int64 {
	if incomeMinor <= 0 {
		return 0
	}
	return int64(math.Round(percent / 100.0 * float64(incomeMinor)))
}

// BudgetPercent converts a fixed minor-unit budget target back to a percent of
// income. Zero income resolves to zero percent rather than failing.
func BudgetPercent(amountMinor, incomeMinor int64) float64 {
	if incomeMinor <= 0 {
		return 0
	}
	return float64(amountMinor) / float64(incomeMinor) * 100.0
}

// ParseDecimalToMinor converts a decimal string to minor units with half-up
// rounding on the third decimal place. Both dot and comma separators are
// accepted. An optional leading minus keeps the outflow sign.
//
// Examples:
//
//	ParseDecimalToMinor("12.34")  -> 1234, nil
//	ParseDecimalToMinor("12,34")  -> 1234, nil
//	ParseDecimalToMinor("-3.456") -> -346, nil
func ParseDecimalToMinor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if s == "" || s == "." {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" && len(parts) == 1 {
		// bare "0" is a legitimate zero amount for budget fields
		return 0, nil
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	// First two fractional digits, half-up on the third.
	var fracMinor int64
	if len(fracPart) > 0 {
		fracMinor = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracMinor += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracMinor++
			}
		}
	}

	minor := iv*100 + fracMinor
	if neg {
		minor = -minor
	}
	return minor, nil
}
