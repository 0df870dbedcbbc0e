// Package tick snaps prices to the KRX minimum price increments.
package tick

import "github.com/shopspring/decimal"

// bracket is one row of the increment schedule: prices below Below use Size.
type bracket struct {
	Below int64
	Size  int64
}

// schedule is ordered by price; the last row has no upper bound.
var schedule = []bracket{
	{2_000, 10},
	{5_000, 5},
	{20_000, 10},
	{50_000, 50},
	{200_000, 100},
	{500_000, 500},
	{0, 1_000},
}

// Size returns the increment that applies to price.
func Size(price decimal.Decimal) int64 {
	for _, b := range schedule {
		if b.Below == 0 || price.LessThan(decimal.NewFromInt(b.Below)) {
			return b.Size
		}
	}
	return schedule[len(schedule)-1].Size
}

// RoundDecimal rounds price half-to-even to the increment of its bracket.
// Non-positive prices round to 0.
func RoundDecimal(price decimal.Decimal) int64 {
	if !price.IsPositive() {
		return 0
	}
	size := decimal.NewFromInt(Size(price))
	return price.Div(size).RoundBank(0).Mul(size).IntPart()
}

// Round is RoundDecimal for float inputs.
func Round(price float64) int64 {
	return RoundDecimal(decimal.NewFromFloat(price))
}

// Scale multiplies base by factor in decimal arithmetic and rounds the result,
// so 8900 x 1.15 is exactly 10235 before rounding.
func Scale(base, factor float64) int64 {
	return RoundDecimal(decimal.NewFromFloat(base).Mul(decimal.NewFromFloat(factor)))
}

// CeilDecimal rounds price up to the increment of its bracket. Bracket
// bounds are multiples of the next increment, so the result is always a
// valid tick. Non-positive prices round to 0.
func CeilDecimal(price decimal.Decimal) int64 {
	if !price.IsPositive() {
		return 0
	}
	size := decimal.NewFromInt(Size(price))
	return price.Div(size).Ceil().Mul(size).IntPart()
}

// ScaleUp is Scale rounding up, for levels that must not fall below base x factor.
func ScaleUp(base, factor float64) int64 {
	return CeilDecimal(decimal.NewFromFloat(base).Mul(decimal.NewFromFloat(factor)))
}
