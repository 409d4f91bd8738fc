// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// the way users and legacy rows write them.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrAmbiguousAmount is returned for a single separator followed by exactly
// three digits ("1.000", "2,500"): it reads as a thousands group in Turkish
// and as a decimal fraction in English.
var ErrAmbiguousAmount = fmt.Errorf("%w: ambiguous thousands separator", ErrInvalidAmount)

// ParseAmount converts a decimal string to a non-negative amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, and
// thousands grouping when both separators appear ("1.234,50" or "1,234.50")
// or when one separator repeats between three-digit groups ("1.000.000").
// Signs are rejected: direction is carried by the transaction kind.
//
// Examples:
//
//	ParseAmount("12.34")     -> 12.34, nil
//	ParseAmount("12,34")     -> 12.34, nil
//	ParseAmount("1.234,50")  -> 1234.50, nil
//	ParseAmount("1.000.000") -> 1000000, nil
//	ParseAmount("1.000")     -> 0, ErrAmbiguousAmount
//	ParseAmount("abc")       -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case dot >= 0:
		normalized, err := singleSeparator(s, ".")
		if err != nil {
			return decimal.Zero, err
		}
		s = normalized
	case comma >= 0:
		normalized, err := singleSeparator(s, ",")
		if err != nil {
			return decimal.Zero, err
		}
		s = normalized
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// singleSeparator handles amounts written with only one kind of separator.
// A repeated separator must split three-digit groups. A single one is a
// decimal point unless exactly three digits follow a non-zero integer part.
func singleSeparator(s, sep string) (string, error) {
	parts := strings.Split(s, sep)
	if len(parts) > 2 {
		if len(parts[0]) == 0 || len(parts[0]) > 3 {
			return "", ErrInvalidAmount
		}
		for _, group := range parts[1:] {
			if len(group) != 3 {
				return "", ErrInvalidAmount
			}
		}
		return strings.Join(parts, ""), nil
	}
	if len(parts[1]) == 3 && strings.TrimLeft(parts[0], "0") != "" {
		return "", ErrAmbiguousAmount
	}
	return parts[0] + "." + parts[1], nil
}

// MustAmount is ParseAmount for literals known to be valid.
func MustAmount(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return d
}

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Sum adds up the amounts of txs.
func Sum(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}
