// Package core holds the domain model of the expense tracker: money,
// month buckets, entities and budget status classification.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in integer cents. All arithmetic happens in cents to
// avoid floating-point drift; floats appear only at the display boundary.
type Money struct {
	Cents int64
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// String formats the amount as a plain decimal, e.g. "12.34" or "-0.05".
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseAmount converts a decimal string to non-negative cents with half-up
// rounding on the third decimal place. Both dot (12.34) and comma (12,34)
// separators are accepted. Signs are rejected: amounts entered in forms are
// magnitudes, never deltas.
//
// Zero is a valid result; callers that need a strictly positive amount
// (expenses) use ParseExpenseAmount instead.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, Validation("amount", "must not be empty")
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, Validation("amount", "must be an unsigned decimal number")
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, Validation("amount", "must be a decimal number")
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	// A bare separator like "." or "," carries no digits at all.
	if intPart == "" && fracPart == "" {
		return Money{}, Validation("amount", "must be a decimal number")
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return Money{}, Validation("amount", "must be a decimal number")
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, Validation("amount", "must be a decimal number")
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, Validation("amount", "out of range")
	}
	// iv*100 + fracCents must stay below 1<<63; at iv == maxSafe the
	// fractional cents can already push it over, so that value is out too.
	const maxSafe = (1<<63 - 1) / 100
	if iv >= maxSafe {
		return Money{}, Validation("amount", "out of range")
	}
	// First two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return Money{Cents: iv*100 + fracCents}, nil
}

// ParseExpenseAmount parses a strictly positive amount.
func ParseExpenseAmount(s string) (Money, error) {
	m, err := ParseAmount(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents <= 0 {
		return Money{}, Validation("amount", "must be a positive amount")
	}
	return m, nil
}
