package sdk

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/floats"

	"github.com/perilpool/sdk/aggregation"
	"github.com/perilpool/sdk/asset"
	"github.com/perilpool/sdk/exposure"
	"github.com/perilpool/sdk/impact"
	"github.com/perilpool/sdk/measure"
)

// Model computes pooled financial loss measures for portfolios of assets.
//
// A model is built once around an impact source and can serve many runs.
// Every run carries its own random generator and accumulator state, so a
// single model is safe for concurrent runs as long as its collaborators are.
type Model interface {
	// GetFinancialImpacts performs one Monte Carlo loss aggregation.
	//
	// For each asset, the model obtains an impact distribution from its
	// impact source, draws sims fractional-impact samples by inverting the
	// distribution's exceedance curve, scales them by the asset's financial
	// exposure (asset value for damage, the year's aggregate cashflows for
	// disruption), and accumulates the loss vector into every pool the
	// keying policy names for the asset. Each pool is then reduced to a
	// percentile ladder and mean.
	//
	// scenario and year are forwarded to the impact source unchanged; year
	// also bounds the cashflow period used for disruption impacts.
	//
	// An asset's loss vector is drawn exactly once and shared by all of its
	// pools. Assets are visited in slice order, so identical inputs and seed
	// reproduce the result bit for bit.
	GetFinancialImpacts(
		ctx context.Context,
		assets []asset.Asset,
		provider exposure.FinancialDataProvider,
		scenario string,
		year int,
		opts ...RunOption,
	) (map[aggregation.Key]measure.Measures, error)
}

// NewModel creates a new loss aggregation model.
//
// Example:
//
//	model, err := sdk.NewModel(
//	    sdk.WithImpactSource(source),
//	    sdk.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	measures, err := model.GetFinancialImpacts(ctx, assets, provider, "ssp585", 2050,
//	    sdk.WithSims(50000),
//	    sdk.WithSeed(7),
//	)
func NewModel(opts ...ModelOption) (Model, error) {
	cfg := &modelConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.source == nil {
		return nil, NewConfigurationError("NewModel", ErrNoImpactSource)
	}

	// Create default logger if not provided
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	m := &defaultModel{
		source: cfg.source,
		logger: cfg.logger,
		tracer: cfg.tracer,
	}

	if cfg.meter != nil {
		metrics, err := initModelMetrics(cfg.meter)
		if err != nil {
			return nil, NewConfigurationError("NewModel", err)
		}
		m.metrics = metrics
	}

	return m, nil
}

// defaultModel is the standard Model implementation.
type defaultModel struct {
	source  impact.Source
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *modelMetrics
}

// runStats collects per-run counters for logging and metrics.
type runStats struct {
	assets    int
	processed int
	excluded  int
	pools     int
}

// GetFinancialImpacts implements Model.
func (m *defaultModel) GetFinancialImpacts(
	ctx context.Context,
	assets []asset.Asset,
	provider exposure.FinancialDataProvider,
	scenario string,
	year int,
	opts ...RunOption,
) (map[aggregation.Key]measure.Measures, error) {
	const op = "Model.GetFinancialImpacts"

	cfg := newRunConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.sims <= 0 {
		return nil, NewValidationError(op, ErrInvalidSims).WithContext(map[string]any{
			"sims": cfg.sims,
		})
	}

	runID := uuid.New().String()
	logger := m.logger.With(
		"run_id", runID,
		"scenario", scenario,
		"year", year,
	)
	logger.Info("starting aggregation run",
		"assets", len(assets),
		"sims", cfg.sims,
		"currency", cfg.currency)

	start := time.Now()
	stats := runStats{assets: len(assets)}

	measures, err := m.run(ctx, logger, assets, provider, scenario, year, cfg, &stats)
	duration := time.Since(start)

	m.recordRun(ctx, runID, scenario, year, cfg.sims, &stats, duration, err)

	if err != nil {
		logger.Error("aggregation run failed",
			"error", err,
			"duration_ms", duration.Milliseconds())
		return nil, err
	}

	logger.Info("aggregation run complete",
		"pools", stats.pools,
		"excluded_assets", stats.excluded,
		"duration_ms", duration.Milliseconds())
	return measures, nil
}

// run executes the aggregation pass over all assets and reduces the pools.
func (m *defaultModel) run(
	ctx context.Context,
	logger *slog.Logger,
	assets []asset.Asset,
	provider exposure.FinancialDataProvider,
	scenario string,
	year int,
	cfg *runConfig,
	stats *runStats,
) (map[aggregation.Key]measure.Measures, error) {
	const op = "Model.GetFinancialImpacts"

	results, err := m.source.Compute(ctx, assets, scenario, year)
	if err != nil {
		return nil, NewImpactError(op, err).WithContext(map[string]any{
			"scenario": scenario,
			"year":     year,
		})
	}

	generator := cfg.rand()
	pools := aggregation.NewPools(cfg.sims)
	uniforms := make([]float64, cfg.sims)

	// Input order drives the draw stream; map iteration would randomize it.
	for _, a := range assets {
		result, ok := results[a]
		if !ok {
			return nil, NewImpactError(op, ErrMissingImpact).WithContext(map[string]any{
				"asset_id": a.ID(),
			})
		}
		distribution := result.Distribution

		scale, err := m.exposureScale(ctx, provider, a, distribution, year, cfg.currency)
		if err != nil {
			return nil, err
		}

		curve, err := distribution.ExceedanceCurve()
		if err != nil {
			return nil, NewImpactError(op, err).WithContext(map[string]any{
				"asset_id": a.ID(),
			})
		}

		for i := range uniforms {
			uniforms[i] = generator.Float64()
		}
		loss := curve.Samples(uniforms)
		floats.Scale(scale, loss)

		keys := cfg.aggregator.AggregationKeys(a, distribution)
		if len(keys) == 0 {
			logger.Warn("asset keyed into no pools, excluding its losses",
				"asset_id", a.ID())
			stats.excluded++
			continue
		}

		if err := pools.Add(keys, loss); err != nil {
			return nil, NewAggregationError(op, err).WithContext(map[string]any{
				"asset_id": a.ID(),
			})
		}
		stats.processed++
	}

	out := make(map[aggregation.Key]measure.Measures, pools.Len())
	for _, key := range pools.Keys() {
		out[key] = measure.FromSamples(pools.Vector(key))
	}
	stats.pools = len(out)
	return out, nil
}

// exposureScale resolves the scalar an asset's fractional impact samples are
// multiplied by. Damage impacts scale by current asset value; disruption
// impacts scale by the aggregate cashflows over the run year, Jan 1 through
// Dec 31 UTC inclusive. Any other impact type fails the run.
func (m *defaultModel) exposureScale(
	ctx context.Context,
	provider exposure.FinancialDataProvider,
	a asset.Asset,
	distribution impact.Distribution,
	year int,
	currency string,
) (float64, error) {
	const op = "Model.GetFinancialImpacts"

	switch distribution.ImpactType() {
	case impact.TypeDamage:
		value, err := provider.GetAssetValue(ctx, a, currency)
		if err != nil {
			return 0, NewExposureError(op, err).WithContext(map[string]any{
				"asset_id": a.ID(),
				"currency": currency,
			})
		}
		return value, nil

	case impact.TypeDisruption:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		cashflow, err := provider.GetAssetAggregateCashflows(ctx, a, start, end, currency)
		if err != nil {
			return 0, NewExposureError(op, err).WithContext(map[string]any{
				"asset_id": a.ID(),
				"currency": currency,
			})
		}
		return cashflow, nil

	default:
		return 0, NewImpactError(op, ErrUnknownImpactType).WithContext(map[string]any{
			"asset_id":    a.ID(),
			"impact_type": distribution.ImpactType().String(),
		})
	}
}
