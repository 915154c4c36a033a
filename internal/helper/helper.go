package helper

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundPrice rounds zone and price outputs to 5 decimals.
func RoundPrice(v float64) float64 { return Round(v, 5) }

func RoundDownToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Floor(px/tick + 1e-12)
	return decimal.NewFromFloat(steps).Mul(decimal.NewFromFloat(tick)).InexactFloat64()
}

func RoundUpToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Ceil(px/tick - 1e-12)
	return decimal.NewFromFloat(steps).Mul(decimal.NewFromFloat(tick)).InexactFloat64()
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampPtr clamps an optional value. NaN is treated as not provided.
func ClampPtr(v *float64, lo, hi float64) *float64 {
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	c := Clamp(*v, lo, hi)
	return &c
}

func Float(v float64) *float64 { return &v }

// Mean returns 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, x := range xs {
		sum = sum.Add(decimal.NewFromFloat(x))
	}
	return sum.Div(decimal.NewFromInt(int64(len(xs)))).InexactFloat64()
}

func NormSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
