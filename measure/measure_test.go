package measure

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestDefaultPercentiles(t *testing.T) {
	require.Equal(t, []float64{0, 10, 20, 40, 60, 80, 90, 95, 97.5, 99, 99.5, 99.9}, DefaultPercentiles)
}

func TestFromSamplesAtExactRanks(t *testing.T) {
	m := FromSamplesAt([]float64{5, 1, 4, 2, 3}, []float64{0, 25, 50, 75, 100})

	assert.Equal(t, []float64{1, 2, 3, 4, 5}, m.PercentileValues)
	assert.Equal(t, 3.0, m.Mean)
}

func TestFromSamplesAtInterpolates(t *testing.T) {
	m := FromSamplesAt([]float64{0, 10}, []float64{50})
	assert.Equal(t, []float64{5}, m.PercentileValues)

	m = FromSamplesAt([]float64{0, 10}, []float64{75})
	assert.Equal(t, []float64{7.5}, m.PercentileValues)
}

func TestFromSamplesSingleSample(t *testing.T) {
	m := FromSamples([]float64{42})

	require.Len(t, m.PercentileValues, len(DefaultPercentiles))
	for _, v := range m.PercentileValues {
		assert.Equal(t, 42.0, v)
	}
	assert.Equal(t, 42.0, m.Mean)
}

func TestFromSamplesLadderShape(t *testing.T) {
	samples := []float64{9, 3, 7, 1, 5, 8, 2, 6, 4, 0}
	m := FromSamples(samples)

	require.Equal(t, DefaultPercentiles, m.Percentiles)
	require.Len(t, m.PercentileValues, len(DefaultPercentiles))

	for i := 1; i < len(m.PercentileValues); i++ {
		assert.GreaterOrEqual(t, m.PercentileValues[i], m.PercentileValues[i-1],
			"percentile values must be non-decreasing")
	}
	assert.Equal(t, 0.0, m.PercentileValues[0], "0th percentile is the minimum")
	// 99.9th percentile of 10 samples: rank h = 0.999*9 = 8.991.
	assert.InDelta(t, 8.991, m.PercentileValues[len(m.PercentileValues)-1], 1e-9)
	assert.InDelta(t, 4.5, m.Mean, 1e-12)
}

func TestFromSamplesLeavesInputUntouched(t *testing.T) {
	samples := []float64{3, 1, 2}
	FromSamples(samples)
	assert.Equal(t, []float64{3, 1, 2}, samples)
}

func TestFromSamplesNormalConvergence(t *testing.T) {
	dist := distuv.Normal{Mu: 100, Sigma: 15, Src: rand.NewPCG(42, 0)}

	samples := make([]float64, 20000)
	for i := range samples {
		samples[i] = dist.Rand()
	}

	m := FromSamples(samples)

	assert.InDelta(t, 100.0, m.Mean, 0.6)

	// z-scores: p90 -> 1.2816, p99 -> 2.3263.
	p90 := m.PercentileValues[6]
	p99 := m.PercentileValues[9]
	assert.InDelta(t, 100+1.2816*15, p90, 1.0)
	assert.InDelta(t, 100+2.3263*15, p99, 2.0)
}

func TestFromSamplesAtPanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() { FromSamples(nil) })
}
