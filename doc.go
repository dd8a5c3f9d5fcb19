// Package sdk provides a Monte Carlo loss aggregation engine for portfolios
// of physical assets exposed to hazard events.
//
// The engine turns per-asset impact distributions into pooled financial loss
// measures: each asset's fractional impact is sampled from its exceedance
// curve, scaled into money by the asset's financial exposure, and accumulated
// into overlapping pools chosen by a keying policy. Every pool is reduced to
// a percentile ladder and mean.
//
// # Core Concepts
//
// The SDK is organized around several key concepts:
//
//   - Assets: opaque handles for the physical holdings of a portfolio
//   - Impact Sources: collaborators that compute per-asset impact
//     distributions for a scenario and year
//   - Exposure Providers: collaborators that resolve asset values and
//     cashflows in a reporting currency
//   - Keying Policies: pure functions that decide which pools an asset's
//     loss contributes to
//   - Pools: elementwise sums of the loss vectors keyed into them
//   - Measures: the percentile ladder and mean reported per pool
//
// # Getting Started
//
// Build a model around an impact source, then run aggregations:
//
//	import "github.com/perilpool/sdk"
//
//	model, err := sdk.NewModel(
//		sdk.WithImpactSource(source),
//		sdk.WithLogger(logger),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	measures, err := model.GetFinancialImpacts(ctx, assets, provider, "ssp585", 2050,
//		sdk.WithSims(100000),
//		sdk.WithSeed(7),
//	)
//
// The result maps every touched pool key to its Measures.
//
// # Impact Sources
//
// Implement impact.Source to plug in a hazard model:
//
//	src := impact.SourceFunc(func(ctx context.Context, assets []asset.Asset, scenario string, year int) (map[asset.Asset]impact.Result, error) {
//		// hazard model logic here
//		return results, nil
//	})
//
// # Keying Policies
//
// The default policy pools by hazard event plus a grand total. Custom
// policies implement aggregation.Aggregator directly, through
// aggregation.AggregatorFunc, or as a CEL expression compiled with
// aggregation.NewCELAggregator:
//
//	agg, err := aggregation.NewCELAggregator(`[asset.region, "root"]`)
//
// # Error Handling
//
// The SDK uses sentinel errors and structured error types for robust error
// handling:
//
//	if err != nil {
//		if errors.Is(err, sdk.ErrInvalidSims) {
//			// Handle invalid simulation count
//		}
//		// Handle other errors
//	}
//
// Unresolvable exposures and malformed distributions abort the run with the
// asset identity attached; an asset keyed into no pools is excluded and
// logged, never an error.
//
// # Reproducibility
//
// Every run owns one explicitly seeded random generator; there is no hidden
// global randomness. Identical inputs with the same seed reproduce results
// bit for bit. Use WithSeed or WithGenerator to control the stream.
//
// # Observability
//
// The SDK integrates OpenTelemetry for distributed tracing and metrics:
//
//	model, err := sdk.NewModel(
//		sdk.WithImpactSource(source),
//		sdk.WithTracer(tracerProvider.Tracer("perilpool")),
//		sdk.WithMeter(meterProvider.Meter("perilpool")),
//	)
//
// Each run emits one span plus duration, processed, and excluded metrics.
//
// # Thread Safety
//
// Models are safe for concurrent runs provided each run gets its own
// generator (the default) and collaborators are themselves safe for
// concurrent use.
//
// # Examples
//
// See the examples directory for complete working examples of:
//
//   - Running an in-process aggregation over a YAML portfolio
//   - Grouping pools with CEL expressions
//   - Serving runs from a Redis-backed worker daemon
package sdk
