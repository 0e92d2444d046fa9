// Package core provides money parsing and handling utilities.
//
// Amounts are kept as arbitrary-precision decimals rounded to cents, so sums
// never pick up floating-point drift.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is a non-negative currency amount with cent precision.
type Money struct {
	d decimal.Decimal
}

// ParseMoney converts a decimal string to Money with half-up rounding to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents and anything that is not a plain decimal are rejected, as is any
// value that is zero after rounding.
//
// Examples:
//
//	ParseMoney("12.34")  -> 12.34
//	ParseMoney("12,34")  -> 12.34
//	ParseMoney("12.345") -> 12.35 (rounds up)
//	ParseMoney("0.004")  -> error (rounds to zero)
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return Money{}, ErrInvalidAmount
	}
	digits := 0
	for _, r := range s {
		if r == '.' {
			continue
		}
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
		digits++
	}
	if digits == 0 {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

// MustMoney is ParseMoney for literals known to be valid. It panics otherwise.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic("core: invalid money literal " + s)
	}
	return m
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// Cmp compares m and o, returning -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

// Equal reports whether m and o are the same amount.
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// div divides by a positive count, rounding half-up to cents.
func (m Money) div(n int) Money {
	return Money{d: m.d.DivRound(decimal.NewFromInt(int64(n)), 2)}
}

// Float64 returns the amount as a float for display purposes.
// Use Money for calculations to avoid floating-point precision issues.
func (m Money) Float64() float64 {
	return m.d.InexactFloat64()
}

// String formats the amount with exactly two decimals.
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// MarshalJSON encodes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// expandExponent rewrites an unsigned JSON number in exponent form, such as
// 1e2, as a plain decimal. Anything else is returned unchanged for
// ParseMoney to judge.
func expandExponent(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "eE") || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.String()
}

// UnmarshalJSON accepts a JSON number, exponent form included, or a numeric
// string.
func (m *Money) UnmarshalJSON(data []byte) error {
	parsed, err := ParseMoney(expandExponent(strings.Trim(string(data), `"`)))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalYAML renders the amount as a plain number.
func (m Money) MarshalYAML() (interface{}, error) {
	return m.Float64(), nil
}
