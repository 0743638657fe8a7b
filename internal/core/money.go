// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed into the
// grid. Amounts are fixed-point decimals with two fractional digits.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount does not parse to a finite number.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts typed text to a 2-digit fixed-point amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an
// optional sign and surrounding spaces. The result is rounded half away
// from zero on the third decimal place.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil
//	ParseAmount("-4.5")   -> -4.50, nil
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// A single comma is a decimal separator; thousands separators are not accepted.
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// ParseAmountOrZero is ParseAmount with a zero fallback.
func ParseAmountOrZero(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// IsAmount reports whether s parses to a finite amount.
func IsAmount(s string) bool {
	_, err := ParseAmount(s)
	return err == nil
}
