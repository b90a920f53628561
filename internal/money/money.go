// Package money handles monetary amounts as int64 minor units (cents).
//
// Amounts cross the API boundary as decimal strings ("12.34") and are parsed
// through a decimal type, never float64, so ledger arithmetic stays exact.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ToleranceCents is the maximum absolute difference between two amounts that
// is treated as equal. One minor unit absorbs the rounding remainder of even
// splits (e.g. 100.00 over three shares of 33.33/33.33/33.34).
const ToleranceCents int64 = 1

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount must be positive")
)

// ParseAmount converts a decimal string to cents.
//
// It rejects empty, non-numeric, zero, and negative input, and input with
// more than two fractional digits: sub-cent amounts cannot be represented
// and silently rounding them would break share-sum validation.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("%w: %q has more than two decimal places", ErrInvalidAmount, s)
	}
	if d.Sign() <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNegativeAmount, s)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return cents.IntPart(), nil
}

// FormatCents renders cents as a plain decimal string with two fractional
// digits, e.g. 1234 -> "12.34", -50 -> "-0.50".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// WithinTolerance reports whether two amounts differ by at most ToleranceCents.
func WithinTolerance(a, b int64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= ToleranceCents
}
