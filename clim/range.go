// Package clim implements the closed intervals used for contrast limits.
package clim

import "fmt"

// Range is a closed interval [Min, Max]. Min never exceeds Max: the
// constructor and Set swap their arguments when needed.
type Range struct {
	Min, Max float64
}

func New(a, b float64) Range {
	var r Range
	r.Set(a, b)
	return r
}

func (r *Range) Set(a, b float64) {
	if a > b {
		a, b = b, a
	}
	r.Min, r.Max = a, b
}

func (r Range) Range() float64 {
	return r.Max - r.Min
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Normalize maps v linearly so that Min becomes 0 and Max becomes 1. A
// degenerate range maps everything to 0.
func (r Range) Normalize(v float64) float64 {
	if r.Range() == 0 {
		return 0
	}
	return (v - r.Min) / r.Range()
}

// Within reports whether r is a subset of o.
func (r Range) Within(o Range) bool {
	return r.Min >= o.Min && r.Max <= o.Max
}

func (r Range) String() string {
	return fmt.Sprintf("(%g, %g)", r.Min, r.Max)
}
