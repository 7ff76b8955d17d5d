// Package calc provides the deterministic metric calculations behind the
// dashboard: normalizing raw statements into a metric table and deriving
// ratios without ever dividing by a missing or zero denominator.
package calc

import (
	"encoding/json"
	"math"

	"value_investor/pkg/models"
)

// Kind tells where a Value came from.
type Kind uint8

const (
	// KindUnavailable marks a value that was not reported or cannot be computed.
	KindUnavailable Kind = iota
	// KindReported is a number copied from a provider line item.
	KindReported
	// KindComputed is a number derived from other values.
	KindComputed
)

func (k Kind) String() string {
	switch k {
	case KindReported:
		return "reported"
	case KindComputed:
		return "computed"
	}
	return "unavailable"
}

// Value is a metric cell. The zero Value is unavailable, which keeps "not
// reported" distinct from a reported zero.
type Value struct {
	Kind Kind
	Num  float64
}

// NA returns the unavailable marker.
func NA() Value {
	return Value{}
}

// Reported wraps a provider number. Non-finite input is unavailable.
func Reported(f float64) Value {
	if !finite(f) {
		return NA()
	}
	return Value{Kind: KindReported, Num: f}
}

// Computed wraps a derived number. Non-finite input is unavailable.
func Computed(f float64) Value {
	if !finite(f) {
		return NA()
	}
	return Value{Kind: KindComputed, Num: f}
}

// FromRaw lifts a provider cell.
func FromRaw(r models.RawValue) Value {
	f, ok := r.Float()
	if !ok {
		return NA()
	}
	return Reported(f)
}

// Available reports whether v carries a number.
func (v Value) Available() bool {
	return v.Kind != KindUnavailable
}

// Float returns the number and whether it is available.
func (v Value) Float() (float64, bool) {
	if !v.Available() {
		return 0, false
	}
	return v.Num, true
}

// Ptr returns nil for unavailable values.
func (v Value) Ptr() *float64 {
	if !v.Available() {
		return nil
	}
	f := v.Num
	return &f
}

// MarshalJSON writes unavailable values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Available() {
		return []byte("null"), nil
	}
	return json.Marshal(v.Num)
}

// Ratio divides num by den. The result is unavailable when either side is
// unavailable or den is zero; a zero numerator is a valid 0.
func Ratio(num, den Value) Value {
	n, ok := num.Float()
	if !ok {
		return NA()
	}
	d, ok := den.Float()
	if !ok || d == 0 {
		return NA()
	}
	return Computed(n / d)
}

// Add sums two values. The result is unavailable when either side is.
func Add(a, b Value) Value {
	x, ok := a.Float()
	if !ok {
		return NA()
	}
	y, ok := b.Float()
	if !ok {
		return NA()
	}
	return Computed(x + y)
}

// Abs keeps the kind and drops the sign.
func Abs(v Value) Value {
	if !v.Available() {
		return v
	}
	return Value{Kind: v.Kind, Num: math.Abs(v.Num)}
}

// Scale multiplies an available value by k.
func Scale(v Value, k float64) Value {
	f, ok := v.Float()
	if !ok {
		return v
	}
	if !finite(f * k) {
		return NA()
	}
	return Value{Kind: v.Kind, Num: f * k}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
