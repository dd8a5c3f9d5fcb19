package impact

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors for curve construction failures.
var (
	// ErrCurveTooShort indicates a curve with fewer than two points, which
	// cannot be interpolated.
	ErrCurveTooShort = errors.New("exceedance curve needs at least two points")

	// ErrNonMonotonic indicates a curve whose probabilities do not strictly
	// decrease or whose values decrease, making inversion ambiguous.
	ErrNonMonotonic = errors.New("exceedance curve is not monotonic")
)

// Curve is the sampling view of an impact distribution.
//
// Samples interprets each uniform(0,1) draw as an exceedance probability and
// returns the impact magnitude at that probability, in a freshly allocated
// slice the caller owns. Implementations must be pure: the output depends only
// on the draws, so that a fixed random source reproduces a run exactly.
type Curve interface {
	Samples(uniforms []float64) []float64
}

// ExceedCurve is a piecewise-linear exceedance curve over explicit points.
//
// Probabilities strictly decrease as values rise: the first point carries the
// highest exceedance probability and the smallest impact, the last point the
// lowest probability and the largest impact. Draws outside the curve's
// probability range clamp to the nearest endpoint value.
type ExceedCurve struct {
	probs  []float64
	values []float64
}

// NewExceedCurve builds a curve from parallel probability and value slices.
// The slices are copied. Probabilities must strictly decrease and values must
// be non-decreasing; violations return ErrNonMonotonic.
func NewExceedCurve(probs, values []float64) (*ExceedCurve, error) {
	if len(probs) != len(values) {
		return nil, fmt.Errorf("probability and value lengths differ: %d vs %d", len(probs), len(values))
	}
	if len(probs) < 2 {
		return nil, ErrCurveTooShort
	}
	for i := 1; i < len(probs); i++ {
		if probs[i] >= probs[i-1] {
			return nil, fmt.Errorf("%w: probability %g at index %d does not decrease", ErrNonMonotonic, probs[i], i)
		}
		if values[i] < values[i-1] {
			return nil, fmt.Errorf("%w: value %g at index %d decreases", ErrNonMonotonic, values[i], i)
		}
	}

	c := &ExceedCurve{
		probs:  make([]float64, len(probs)),
		values: make([]float64, len(values)),
	}
	copy(c.probs, probs)
	copy(c.values, values)
	return c, nil
}

// Samples maps each uniform draw through the inverse of the curve, linearly
// interpolating between points.
func (c *ExceedCurve) Samples(uniforms []float64) []float64 {
	out := make([]float64, len(uniforms))
	for i, u := range uniforms {
		out[i] = c.at(u)
	}
	return out
}

// at returns the impact value whose exceedance probability is u.
func (c *ExceedCurve) at(u float64) float64 {
	n := len(c.probs)
	if u >= c.probs[0] {
		return c.values[0]
	}
	if u <= c.probs[n-1] {
		return c.values[n-1]
	}

	// First index whose probability has fallen below u; the draw sits between
	// that point and its predecessor.
	k := sort.Search(n, func(j int) bool { return c.probs[j] < u })
	hi, lo := c.probs[k-1], c.probs[k]
	t := (hi - u) / (hi - lo)
	return c.values[k-1] + t*(c.values[k]-c.values[k-1])
}

// Probs returns a copy of the curve's exceedance probabilities.
func (c *ExceedCurve) Probs() []float64 {
	out := make([]float64, len(c.probs))
	copy(out, c.probs)
	return out
}

// Values returns a copy of the curve's impact values.
func (c *ExceedCurve) Values() []float64 {
	out := make([]float64, len(c.values))
	copy(out, c.values)
	return out
}
