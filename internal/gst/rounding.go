package gst

import "github.com/shopspring/decimal"

var (
	half = decimal.New(5, -1)
	one  = decimal.NewFromInt(1)
)

// RoundHalfUp rounds x to the given number of decimals with exact midpoints
// going up: scale by 10^places, add 0.5, truncate, scale back. This is the
// Tally Prime rule; .125 at two decimals becomes .13 where round-half-even
// would give .12. Defined for the non-negative amounts this domain produces.
func RoundHalfUp(x decimal.Decimal, places int32) decimal.Decimal {
	return x.Shift(places).Add(half).Truncate(0).Shift(-places)
}

// RoundHalfUpToInt rounds x to a whole number: fractional part >= 0.5 rounds
// up, anything below truncates. Used for the final grand total rounding.
func RoundHalfUpToInt(x decimal.Decimal) decimal.Decimal {
	whole := x.Truncate(0)
	if x.Sub(whole).GreaterThanOrEqual(half) {
		return whole.Add(one)
	}
	return whole
}
