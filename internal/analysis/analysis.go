// Package analysis holds the numeric helpers shared by the trade metrics,
// scoring and aggregation packages.
package analysis

import (
	"github.com/shopspring/decimal"
)

// Rounding precision of derived values.
const (
	PipPlaces     int32 = 1
	MoneyPlaces   int32 = 2
	RatioPlaces   int32 = 2
	PercentPlaces int32 = 2
)

// Round rounds v half away from zero to the given number of decimal places.
// Rounding goes through decimal so 0.125 rounds to 0.13 instead of 0.12.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundMoney rounds to cents.
func RoundMoney(v float64) float64 {
	return Round(v, MoneyPlaces)
}

// RoundRatio rounds R-multiples, profit factors and similar ratios.
func RoundRatio(v float64) float64 {
	return Round(v, RatioPlaces)
}

// RoundPercent rounds percentages.
func RoundPercent(v float64) float64 {
	return Round(v, PercentPlaces)
}

// Ratio returns num/den, or 0 when den is zero.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Percent returns part/whole*100, or 0 when whole is zero.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
