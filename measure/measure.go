// Package measure reduces pooled loss vectors to summary statistics.
//
// Each pool is summarized by a fixed ladder of percentiles plus the mean.
// Percentile values use linear interpolation between order statistics, so
// results line up with the conventional defaults of common numeric stacks.
package measure

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultPercentiles is the ladder of percentile levels reported for every
// pool, in percent and ascending.
var DefaultPercentiles = []float64{0, 10, 20, 40, 60, 80, 90, 95, 97.5, 99, 99.5, 99.9}

// Measures summarizes one pool's loss distribution. Fields are JSON-tagged
// for transport in run results.
type Measures struct {
	// Percentiles holds the requested levels, in percent.
	Percentiles []float64 `json:"percentiles"`

	// PercentileValues holds the empirical loss at each level, aligned with
	// Percentiles index by index.
	PercentileValues []float64 `json:"percentile_values"`

	// Mean is the arithmetic mean loss.
	Mean float64 `json:"mean"`
}

// FromSamples summarizes the samples at the DefaultPercentiles ladder.
// The input slice is not modified. Samples must be non-empty.
func FromSamples(samples []float64) Measures {
	return FromSamplesAt(samples, DefaultPercentiles)
}

// FromSamplesAt summarizes the samples at the given percentile levels
// (in percent, each within [0, 100]). The input slice is not modified.
// Samples must be non-empty.
func FromSamplesAt(samples, levels []float64) Measures {
	if len(samples) == 0 {
		panic("measure: FromSamplesAt called with no samples")
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	values := make([]float64, len(levels))
	for i, level := range levels {
		values[i] = quantileSorted(sorted, level/100)
	}

	return Measures{
		Percentiles:      append([]float64(nil), levels...),
		PercentileValues: values,
		Mean:             stat.Mean(samples, nil),
	}
}

// quantileSorted returns the p-quantile (p in [0, 1]) of an ascending slice
// using linear interpolation between the order statistics at rank
// h = p*(n-1).
func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	h := p * float64(n-1)
	if h <= 0 {
		return sorted[0]
	}
	i := int(math.Floor(h))
	if i >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(i)
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}
