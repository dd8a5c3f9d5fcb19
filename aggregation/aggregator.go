// Package aggregation pools Monte Carlo loss vectors under configurable keys.
//
// A keying policy maps each asset, together with its impact distribution, to
// the set of pools the asset's loss contributes to. Pools may overlap: the
// default policy keys every asset into both a per-hazard pool and the grand
// total, so a single loss vector is counted in several rollups at once. The
// Pools accumulator guarantees each pool is the exact elementwise sum of the
// vectors keyed into it.
package aggregation

import (
	"github.com/perilpool/sdk/asset"
	"github.com/perilpool/sdk/hazard"
	"github.com/perilpool/sdk/impact"
)

// Aggregator decides which pools an asset's loss vector contributes to.
//
// Implementations must be pure functions of their arguments and must not
// fail: an asset that matches no rule yields KeyUnclassified, and an empty
// key list excludes the asset from pooling entirely. Duplicate keys are
// tolerated and contribute once.
type Aggregator interface {
	AggregationKeys(a asset.Asset, d impact.Distribution) []Key
}

// AggregatorFunc adapts a function to the Aggregator interface.
type AggregatorFunc func(a asset.Asset, d impact.Distribution) []Key

// AggregationKeys calls f(a, d).
func (f AggregatorFunc) AggregationKeys(a asset.Asset, d impact.Distribution) []Key {
	return f(a, d)
}

// Default keys every asset into the pool named after its hazard event plus
// the grand total. Events that are unknown or outside the taxonomy land in
// KeyUnclassified instead.
type Default struct{}

// AggregationKeys implements Aggregator.
func (Default) AggregationKeys(_ asset.Asset, d impact.Distribution) []Key {
	event := d.Event()
	if event == hazard.EventUnknown || !event.IsValid() {
		return []Key{KeyUnclassified, KeyTotal}
	}
	return []Key{Key(event.String()), KeyTotal}
}
