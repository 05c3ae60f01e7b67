// Package core provides the budget domain: income records and the payroll
// calculator, investment transactions, vehicle service logs, and the
// aggregation reports built on top of them.
//
// This file contains decimal parsing, rounding, and formatting helpers.
// Amounts are never handled as floating point.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// StoredPlaces is the number of decimal places kept for stored amounts.
const StoredPlaces = 2

// Round2 rounds to the stored precision using banker's rounding, the same
// rounding applied when a decimal column is quantized.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(StoredPlaces)
}

// ParseAmount converts a user-entered decimal string to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, ignores
// thousands separators written as spaces or apostrophes, and permits a
// leading minus sign. Empty input parses as zero so optional form fields can
// be left blank.
//
// Examples:
//
//	ParseAmount("12.34")   -> 12.34
//	ParseAmount("12,34")   -> 12.34
//	ParseAmount("")        -> 0
//	ParseAmount("1 000.5") -> 1000.5
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\'' || r == '_' {
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, ",", ".")

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")

	parts := strings.Split(s, ".")
	if len(parts) > 2 || (parts[0] == "" && (len(parts) == 1 || parts[1] == "")) {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// FormatMoney renders an amount with thousands separators and two decimals,
// prefixed by the currency code (e.g. "LKR 8,700.00").
func FormatMoney(d decimal.Decimal, c Currency) string {
	s := Round2(d).StringFixed(StoredPlaces)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	if c == "" {
		return out
	}
	return string(c) + " " + out
}
