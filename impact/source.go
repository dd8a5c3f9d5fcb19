package impact

import (
	"context"

	"github.com/perilpool/sdk/asset"
)

// Result carries the impact distribution computed for one asset.
type Result struct {
	Distribution Distribution
}

// Source computes impact distributions for a batch of assets under a scenario
// and projection year.
//
// Compute must return a result for every asset it was given and must be
// deterministic for fixed inputs and model configuration. The engine forwards
// scenario and year unchanged and does not interpret them.
type Source interface {
	Compute(ctx context.Context, assets []asset.Asset, scenario string, year int) (map[asset.Asset]Result, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, assets []asset.Asset, scenario string, year int) (map[asset.Asset]Result, error)

// Compute calls the wrapped function.
func (f SourceFunc) Compute(ctx context.Context, assets []asset.Asset, scenario string, year int) (map[asset.Asset]Result, error) {
	return f(ctx, assets, scenario, year)
}
