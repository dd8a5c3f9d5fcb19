package sdk

import (
	"log/slog"
	"math/rand/v2"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/perilpool/sdk/aggregation"
	"github.com/perilpool/sdk/impact"
)

// Defaults applied to every run unless overridden by RunOptions.
const (
	// DefaultCurrency is the reporting currency for losses.
	DefaultCurrency = "EUR"

	// DefaultSims is the number of Monte Carlo samples drawn per asset.
	DefaultSims = 100000

	// DefaultSeed seeds the run's random generator when neither WithSeed nor
	// WithGenerator is given, so unconfigured runs are still reproducible.
	DefaultSeed uint64 = 111
)

// ModelOption configures a Model.
type ModelOption func(*modelConfig)

// modelConfig holds configuration for a Model instance.
type modelConfig struct {
	source impact.Source
	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter
}

// WithImpactSource sets the source the model computes impact distributions
// with. Required: NewModel fails without one.
func WithImpactSource(source impact.Source) ModelOption {
	return func(c *modelConfig) {
		c.source = source
	}
}

// WithLogger sets a custom logger for the model.
// If not provided, a default logger will be created.
func WithLogger(logger *slog.Logger) ModelOption {
	return func(c *modelConfig) {
		c.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer for distributed tracing.
// Each aggregation run is recorded as one span.
func WithTracer(tracer trace.Tracer) ModelOption {
	return func(c *modelConfig) {
		c.tracer = tracer
	}
}

// WithMeter sets an OpenTelemetry meter for run metrics: run duration,
// processed assets, and assets excluded by empty key sets.
func WithMeter(meter metric.Meter) ModelOption {
	return func(c *modelConfig) {
		c.meter = meter
	}
}

// RunOption configures a single aggregation run.
type RunOption func(*runConfig)

// runConfig holds per-run settings.
type runConfig struct {
	aggregator aggregation.Aggregator
	currency   string
	sims       int
	seed       uint64
	generator  *rand.Rand
}

// newRunConfig returns the run defaults: the default keying policy,
// DefaultCurrency, DefaultSims, and a generator seeded with DefaultSeed.
func newRunConfig() *runConfig {
	return &runConfig{
		aggregator: aggregation.Default{},
		currency:   DefaultCurrency,
		sims:       DefaultSims,
		seed:       DefaultSeed,
	}
}

// rand returns the run's generator, building one from the seed when no
// generator was injected.
func (c *runConfig) rand() *rand.Rand {
	if c.generator != nil {
		return c.generator
	}
	return rand.New(rand.NewPCG(c.seed, 0))
}

// WithAggregator sets the keying policy deciding which pools each asset's
// loss contributes to. Default: aggregation.Default.
func WithAggregator(aggregator aggregation.Aggregator) RunOption {
	return func(c *runConfig) {
		c.aggregator = aggregator
	}
}

// WithCurrency sets the reporting currency all losses are expressed in.
// Default: DefaultCurrency.
func WithCurrency(currency string) RunOption {
	return func(c *runConfig) {
		c.currency = currency
	}
}

// WithSims sets the Monte Carlo sample count for the run. The count is fixed
// for the whole run and must be positive; it is validated at run entry.
func WithSims(sims int) RunOption {
	return func(c *runConfig) {
		c.sims = sims
	}
}

// WithSeed seeds a fresh PCG generator for the run. Identical inputs and seed
// reproduce a run exactly.
//
// WithSeed and WithGenerator override each other; the option applied last
// wins.
func WithSeed(seed uint64) RunOption {
	return func(c *runConfig) {
		c.seed = seed
		c.generator = nil
	}
}

// WithGenerator supplies the run's random generator directly. The generator
// is consumed by the run and must not be shared with concurrent runs.
//
// WithSeed and WithGenerator override each other; the option applied last
// wins.
func WithGenerator(generator *rand.Rand) RunOption {
	return func(c *runConfig) {
		c.generator = generator
	}
}
