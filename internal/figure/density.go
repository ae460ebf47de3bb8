package figure

import (
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// Density evaluates a Gaussian kernel density estimate of values at xs.
// It returns nil when the sample cannot support an estimate: fewer than two
// points or no spread.
func Density(values, xs []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	sample := stats.Sample{Xs: sorted, Sorted: true}

	bw := stats.BandwidthScott(&sample)
	if !(bw > 0) || math.IsInf(bw, 0) {
		bw = stats.BandwidthSilverman(&sample)
	}
	if !(bw > 0) || math.IsInf(bw, 0) {
		return nil
	}
	kde := &stats.KDE{Sample: sample, Kernel: stats.GaussianKernel, Bandwidth: bw}
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = kde.PDF(x)
	}
	return out
}

// linspace returns n evenly spaced points over [lo, hi].
func linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
