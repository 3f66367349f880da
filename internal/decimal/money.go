package decimal

import (
	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of decimals printed for ARS amounts
const DisplayPlaces = 2

var hundred = decimal.NewFromInt(100)

// Percent computes amount * (rate/100) without rounding
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

// Display formats d with exactly DisplayPlaces decimals, half to even
func Display(d decimal.Decimal) string {
	return d.StringFixedBank(DisplayPlaces)
}

// IsNonNegative returns true if decimal is >= zero
func IsNonNegative(d decimal.Decimal) bool {
	return !d.IsNegative()
}
