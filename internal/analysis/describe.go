package analysis

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// Stats holds descriptive statistics of a numeric column.
type Stats struct {
	Count float64 `json:"count" yaml:"count"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Std   float64 `json:"std" yaml:"std"`
	Min   float64 `json:"min" yaml:"min"`
	Q25   float64 `json:"25%" yaml:"25%"`
	Q50   float64 `json:"50%" yaml:"50%"`
	Q75   float64 `json:"75%" yaml:"75%"`
	Max   float64 `json:"max" yaml:"max"`
}

// Describe computes count, mean, sample standard deviation, min, quartiles
// and max. Statistics that are undefined for the sample size are NaN.
func Describe(values []float64) Stats {
	nan := math.NaN()
	s := Stats{Count: float64(len(values)), Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	if len(values) == 0 {
		return s
	}
	s.Mean, _ = stats.Mean(values)
	s.Min, _ = stats.Min(values)
	s.Max, _ = stats.Max(values)
	if len(values) > 1 {
		s.Std, _ = stats.StandardDeviationSample(values)
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	s.Q25 = quantile(sorted, 0.25)
	s.Q50 = quantile(sorted, 0.5)
	s.Q75 = quantile(sorted, 0.75)
	return s
}

// Entries returns the statistics in display order.
func (s Stats) Entries() []StatEntry {
	return []StatEntry{
		{"count", s.Count}, {"mean", s.Mean}, {"std", s.Std}, {"min", s.Min},
		{"25%", s.Q25}, {"50%", s.Q50}, {"75%", s.Q75}, {"max", s.Max},
	}
}

// StatEntry is one named statistic.
type StatEntry struct {
	Name  string
	Value float64
}

// MarshalJSON writes undefined statistics as null.
func (s Stats) MarshalJSON() ([]byte, error) {
	m := make(map[string]*float64, 8)
	for _, e := range s.Entries() {
		v := e.Value
		if math.IsNaN(v) || math.IsInf(v, 0) {
			m[e.Name] = nil
			continue
		}
		m[e.Name] = &v
	}
	return json.Marshal(m)
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
