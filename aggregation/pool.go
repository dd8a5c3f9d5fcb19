package aggregation

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Pools accumulates per-asset loss vectors into keyed pools.
//
// All vectors in one pool set share a fixed length, set at construction.
// A pool's vector is the exact elementwise sum of every loss vector added
// under its key; pools are created zeroed on first touch and never shrink.
// Pools is not safe for concurrent use.
type Pools struct {
	sims    int
	vectors map[Key][]float64
}

// NewPools creates an empty pool set holding vectors of length sims.
func NewPools(sims int) *Pools {
	return &Pools{
		sims:    sims,
		vectors: make(map[Key][]float64),
	}
}

// Add accumulates the loss vector into every named pool. Duplicate keys in
// one call contribute a single time. The loss vector must have exactly the
// pool set's length.
func (p *Pools) Add(keys []Key, loss []float64) error {
	if len(loss) != p.sims {
		return fmt.Errorf("loss vector has %d samples, pools hold %d", len(loss), p.sims)
	}

	seen := make(map[Key]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true

		vec, ok := p.vectors[key]
		if !ok {
			vec = make([]float64, p.sims)
			p.vectors[key] = vec
		}
		floats.Add(vec, loss)
	}
	return nil
}

// Sims returns the fixed vector length of this pool set.
func (p *Pools) Sims() int {
	return p.sims
}

// Len returns the number of pools touched so far.
func (p *Pools) Len() int {
	return len(p.vectors)
}

// Keys returns the touched pool keys in lexical order.
func (p *Pools) Keys() []Key {
	keys := make([]Key, 0, len(p.vectors))
	for key := range p.vectors {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Vector returns the accumulated vector for the key, or nil if no loss was
// ever added under it. The returned slice is the pool's live storage, not a
// copy.
func (p *Pools) Vector(key Key) []float64 {
	return p.vectors[key]
}
