package format

import (
	"strings"

	"value_investor/pkg/core/calc"
)

// Direction is the sign of a change, for coloring it.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
	Flat Direction = "flat"
)

// PriceChange formats the move from prev to cur as a signed amount and a
// signed relative change, e.g. "+$5.23 (+2.45%)". A change that rounds to
// zero is Flat and printed with "+". The relative part is N/A when prev is
// zero. Unavailable input gives (NA, Flat).
func PriceChange(cur, prev calc.Value) (string, Direction) {
	c, ok := cur.Float()
	if !ok {
		return NA, Flat
	}
	p, ok := prev.Float()
	if !ok {
		return NA, Flat
	}
	diff := calc.Computed(c - p)
	if !diff.Available() {
		return NA, Flat
	}

	amount := LargeNumber(calc.Abs(diff))
	dir := Flat
	sign := "+"
	switch {
	case amount == "$0.00":
	case diff.Num > 0:
		dir = Up
	default:
		dir, sign = Down, "-"
	}

	pct := Percentage(calc.PeriodChange([]calc.Value{prev, cur})[1])
	if pct != NA && !strings.HasPrefix(pct, "-") {
		pct = "+" + pct
	}
	return sign + amount + " (" + pct + ")", dir
}
