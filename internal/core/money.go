// Package core provides money parsing and handling utilities.
//
// Amounts are stored as text and handled as exact decimals so that totals
// computed from them (entries minus expenses) never drift.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmountStrict converts a stored amount to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Negative values and anything that is not a plain decimal number are
// rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmountStrict("12.34") -> 12.34, nil
//	ParseAmountStrict("12,34") -> 12.34, nil
//	ParseAmountStrict("-1")    -> 0, ErrInvalidAmount
func ParseAmountStrict(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseAmount is the lenient reader used by aggregation: anything
// ParseAmountStrict rejects counts as zero.
func ParseAmount(s string) decimal.Decimal {
	d, err := ParseAmountStrict(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
