// Package money provides small helpers for monetary arithmetic on
// shopspring decimals. All simulation values are decimal.Decimal; this
// package keeps the recurring idioms (rounding to cents, applying an
// annual rate, clamping) in one place.
package money

import (
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Round rounds an amount to cents.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// ApplyRate returns v grown by an annual rate, i.e. v * (1 + rate).
// A negative rate shrinks the value.
func ApplyRate(v, rate decimal.Decimal) decimal.Decimal {
	return v.Mul(one.Add(rate))
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// NonNegative clamps a value at zero.
func NonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
