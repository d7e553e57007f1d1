// Package scoring holds numeric helpers shared by the similarity engines.
package scoring

import (
	"math"

	"github.com/shopspring/decimal"
)

// Epsilon absorbs float error when comparing weighted sums against thresholds
const Epsilon = 1e-9

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Clamp01 bounds v to [0, 1].
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// AtLeast reports whether v meets threshold, tolerating float error.
func AtLeast(v, threshold float64) bool {
	return v >= threshold-Epsilon
}

// Percent returns v as a whole percentage, e.g. 0.456 -> 46.
func Percent(v float64) int {
	return int(decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// PercentOf returns part/total as a percentage rounded to one decimal, or 0
// when total is 0.
func PercentOf(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(1).
		InexactFloat64()
}
