// Package core holds the domain model shared by every layer: identities,
// expenses, categories, money and the error taxonomy.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in integer cents. Using cents end-to-end keeps sums
// exact; floats appear only at the display edge.
type Money struct {
	Cents int64
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return fmt.Errorf("%w: amount must be non-negative", ErrValidation)
	}
	return nil
}

// ParseAmount converts a decimal string such as "42.50" to Money. It
// accepts both dot and comma separators and rounds half-up past the
// second decimal. Negative amounts are rejected.
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return Money{}, fmt.Errorf("%w: amount is required", ErrValidation)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: amount %q is not a number", ErrValidation, s)
	}
	if d.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount must be non-negative", ErrValidation)
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsInteger() || !cents.BigInt().IsInt64() {
		return Money{}, fmt.Errorf("%w: amount %q out of range", ErrValidation, s)
	}
	return Money{Cents: cents.IntPart()}, nil
}

// FromCents wraps raw cents.
func FromCents(cents int64) Money {
	return Money{Cents: cents}
}

// Decimal returns the exact decimal value (cents / 100).
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the fixed two-decimal form, e.g. "42.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}
