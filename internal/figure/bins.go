package figure

import "math"

// Bin is one equal-width histogram bucket covering [From, To).
// The last bin is closed on the right.
type Bin struct {
	From  float64
	To    float64
	Count int
}

// Center returns the midpoint of the bin.
func (b Bin) Center() float64 { return (b.From + b.To) / 2 }

// Width returns the bin width.
func (b Bin) Width() float64 { return b.To - b.From }

// Bins splits [min, max] of values into n equal-width bins.
// A zero-width range is widened to [v-0.5, v+0.5]; no values gives [0, 1].
func Bins(values []float64, n int) []Bin {
	if n <= 0 {
		n = 1
	}
	lo, hi := 0.0, 1.0
	if len(values) > 0 {
		lo, hi = values[0], values[0]
		for _, v := range values[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if lo == hi {
			lo -= 0.5
			hi += 0.5
		}
	}
	width := (hi - lo) / float64(n)
	out := make([]Bin, n)
	for i := range out {
		out[i] = Bin{From: lo + float64(i)*width, To: lo + float64(i+1)*width}
	}
	out[n-1].To = hi
	for _, v := range values {
		idx := int(math.Floor((v - lo) / width))
		if idx >= n {
			idx = n - 1
		}
		if idx < 0 {
			idx = 0
		}
		out[idx].Count++
	}
	return out
}
