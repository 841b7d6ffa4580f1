package money

import (
	"github.com/shopspring/decimal"
)

const (
	// DefaultScale is the number of fractional digits used when a currency does not declare one.
	DefaultScale int32 = 2
	// MaxScale is the largest number of fractional digits a currency may declare.
	MaxScale int32 = 8
)

// Zero is the additive identity.
var Zero = decimal.Zero

// Add sums the provided amounts.
func Add(a decimal.Decimal, rest ...decimal.Decimal) decimal.Decimal {
	sum := a
	for _, v := range rest {
		sum = sum.Add(v)
	}
	return sum
}

// Sub subtracts every value in rest from a.
func Sub(a decimal.Decimal, rest ...decimal.Decimal) decimal.Decimal {
	diff := a
	for _, v := range rest {
		diff = diff.Sub(v)
	}
	return diff
}

// Mul multiplies a unit price by an integer quantity.
func Mul(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// MulRate multiplies an amount by an arbitrary decimal factor.
func MulRate(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate)
}

// ClampNonNegative returns zero for negative amounts and the amount otherwise.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Round rounds half away from zero to the requested number of fractional digits.
// Callers opt in explicitly; the other helpers never round.
func Round(d decimal.Decimal, scale int32) decimal.Decimal {
	return d.Round(scale)
}

// ValidScale reports whether scale is an allowed currency precision.
func ValidScale(scale int) bool {
	return scale >= 0 && scale <= int(MaxScale)
}

// Positive reports whether d is strictly greater than zero.
func Positive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}

// divisionScale bounds the fractional digits kept by Convert before the caller rounds.
const divisionScale int32 = 16

// Convert moves amount from a currency quoted at fromRate to one quoted at
// toRate, both relative to the same base. fromRate must be positive.
func Convert(amount, fromRate, toRate decimal.Decimal) decimal.Decimal {
	return amount.Mul(toRate).DivRound(fromRate, divisionScale)
}
