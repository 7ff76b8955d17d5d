package calc

import "math"

// PeriodChange is the relative change of each value against the one before it,
// (cur - prev) / |prev|. The first entry, entries next to an unavailable value
// and entries after a zero are unavailable.
func PeriodChange(series []Value) []Value {
	out := make([]Value, len(series))
	for i := 1; i < len(series); i++ {
		cur, ok := series[i].Float()
		if !ok {
			continue
		}
		prev, ok := series[i-1].Float()
		if !ok || prev == 0 {
			continue
		}
		out[i] = Computed((cur - prev) / math.Abs(prev))
	}
	return out
}
