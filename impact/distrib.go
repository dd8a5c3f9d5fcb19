package impact

import (
	"fmt"

	"github.com/perilpool/sdk/hazard"
)

// probSumTolerance absorbs floating-point drift when checking that bin
// probabilities do not exceed one.
const probSumTolerance = 1e-9

// Distribution is the engine's view of a per-asset impact distribution.
//
// Implementations are immutable once produced by the impact source.
// ExceedanceCurve returns an error when the distribution cannot be sampled,
// for example when its curve would not be monotonic.
type Distribution interface {
	// ImpactType reports whether the fraction reduces asset value (damage)
	// or periodic cashflow (disruption).
	ImpactType() Type

	// Event is the hazard class the impact is attributed to.
	Event() hazard.Event

	// ExceedanceCurve derives the sampling view of the distribution.
	ExceedanceCurve() (Curve, error)
}

// Distrib is a histogram impact distribution over fractional impact bins.
//
// The distribution is described by len(probs)+1 bin edges and the probability
// mass in each bin. Point masses are expressed as zero-width bins. Probability
// mass not covered by the bins is implicitly at the lowest edge (typically
// zero impact).
type Distrib struct {
	event hazard.Event
	typ   Type
	bins  []float64
	probs []float64
}

// NewDistrib builds a histogram distribution and validates its shape:
// bins must hold one more edge than probs has entries, edges must not
// decrease, probabilities must be non-negative and sum to at most one.
func NewDistrib(event hazard.Event, typ Type, bins, probs []float64) (*Distrib, error) {
	if !typ.IsValid() {
		return nil, fmt.Errorf("unrecognized impact type: %s", typ)
	}
	if len(probs) < 1 {
		return nil, fmt.Errorf("distribution needs at least one bin")
	}
	if len(bins) != len(probs)+1 {
		return nil, fmt.Errorf("got %d bin edges for %d bins, want %d", len(bins), len(probs), len(probs)+1)
	}

	total := 0.0
	for i, p := range probs {
		if p < 0 {
			return nil, fmt.Errorf("bin %d has negative probability %g", i, p)
		}
		total += p
	}
	if total > 1+probSumTolerance {
		return nil, fmt.Errorf("bin probabilities sum to %g, want at most 1", total)
	}
	for i := 1; i < len(bins); i++ {
		if bins[i] < bins[i-1] {
			return nil, fmt.Errorf("bin edge %g at index %d decreases", bins[i], i)
		}
	}

	d := &Distrib{
		event: event,
		typ:   typ,
		bins:  make([]float64, len(bins)),
		probs: make([]float64, len(probs)),
	}
	copy(d.bins, bins)
	copy(d.probs, probs)
	return d, nil
}

// ImpactType returns whether the distribution is damage or disruption.
func (d *Distrib) ImpactType() Type {
	return d.typ
}

// Event returns the hazard class the distribution is attributed to.
func (d *Distrib) Event() hazard.Event {
	return d.event
}

// ExceedanceCurve derives the piecewise-linear exceedance curve of the
// histogram: each occupied bin contributes its lower edge at the probability
// of meeting or exceeding that edge, and the top edge closes the curve at
// probability zero. Empty bins are skipped so probabilities strictly decrease.
func (d *Distrib) ExceedanceCurve() (Curve, error) {
	n := len(d.probs)

	suffix := make([]float64, n+1)
	for i := n - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1] + d.probs[i]
	}

	probs := make([]float64, 0, n+1)
	values := make([]float64, 0, n+1)
	for i := 0; i < n; i++ {
		if d.probs[i] <= 0 {
			continue
		}
		probs = append(probs, suffix[i])
		values = append(values, d.bins[i])
	}
	probs = append(probs, 0)
	values = append(values, d.bins[n])

	return NewExceedCurve(probs, values)
}
