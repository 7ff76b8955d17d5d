// Package format turns metric values into the fixed display strings used by the
// dashboard widgets. Every function returns "N/A" for unavailable input and
// never falls back to scientific notation.
package format

import (
	"math"
	"strconv"

	"value_investor/pkg/core/calc"
)

// NA is the display string for anything unavailable.
const NA = "N/A"

var magnitudes = []struct {
	div    float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
	{1, ""},
}

// Float converts a raw number; NaN and ±Inf become unavailable.
func Float(f float64) calc.Value {
	return calc.Reported(f)
}

// Ptr converts an optional number.
func Ptr(f *float64) calc.Value {
	if f == nil {
		return calc.NA()
	}
	return calc.Reported(*f)
}

// LargeNumber formats v as dollars with a T/B/M/K suffix, e.g. "$1.50B".
func LargeNumber(v calc.Value) string {
	f, ok := v.Float()
	if !ok {
		return NA
	}
	s, neg := magnitude(f)
	if neg {
		return "-$" + s
	}
	return "$" + s
}

// Count formats v like LargeNumber without the currency sign, e.g. "15.20B".
func Count(v calc.Value) string {
	f, ok := v.Float()
	if !ok {
		return NA
	}
	s, neg := magnitude(f)
	if neg {
		return "-" + s
	}
	return s
}

// Percentage formats a fraction, 0.1545 -> "15.45%".
func Percentage(v calc.Value) string {
	f, ok := v.Float()
	if !ok {
		return NA
	}
	s, ok := fixed2(f * 100)
	if !ok {
		return NA
	}
	return s + "%"
}

// Ratio formats a multiple, 24.567 -> "24.57x".
func Ratio(v calc.Value) string {
	f, ok := v.Float()
	if !ok {
		return NA
	}
	s, ok := fixed2(f)
	if !ok {
		return NA
	}
	return s + "x"
}

// Format dispatches on unit. Unknown units format as NA.
func Format(v calc.Value, unit calc.Unit) string {
	switch unit {
	case calc.UnitCurrency:
		return LargeNumber(v)
	case calc.UnitPercentage:
		return Percentage(v)
	case calc.UnitRatio:
		return Ratio(v)
	case calc.UnitCount:
		return Count(v)
	}
	return NA
}

// magnitude picks the largest suffix whose scaled value is at least 1. When
// rounding carries the scaled value to 1000 the next suffix up is used.
func magnitude(f float64) (s string, neg bool) {
	abs := math.Abs(f)
	for i, m := range magnitudes {
		if abs < m.div && m.div != 1 {
			continue
		}
		scaled := round2(abs / m.div)
		if scaled >= 1000 && i > 0 {
			up := magnitudes[i-1]
			scaled = round2(abs / up.div)
			m = up
		}
		if scaled == 0 {
			return "0.00", false
		}
		return strconv.FormatFloat(scaled, 'f', 2, 64) + m.suffix, f < 0
	}
	return "0.00", false
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// fixed2 formats with two decimals and drops the sign of a rounded zero.
// It fails when f, or f scaled for rounding, is not finite.
func fixed2(f float64) (string, bool) {
	r := round2(f)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return "", false
	}
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', 2, 64), true
}
