package sdk

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// modelMetrics holds the OpenTelemetry metric instruments for the model.
// These are created once during NewModel and reused for all runs.
type modelMetrics struct {
	// durationHistogram records run duration in milliseconds
	durationHistogram metric.Float64Histogram

	// processedCounter counts assets whose losses entered at least one pool
	processedCounter metric.Int64Counter

	// excludedCounter counts assets excluded because their key set was empty
	excludedCounter metric.Int64Counter
}

// initModelMetrics creates and initializes all OpenTelemetry metric
// instruments. This is called once when WithMeter is configured.
func initModelMetrics(meter metric.Meter) (*modelMetrics, error) {
	metrics := &modelMetrics{}
	var err error

	metrics.durationHistogram, err = meter.Float64Histogram(
		"model.run.duration",
		metric.WithDescription("Aggregation run duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	metrics.processedCounter, err = meter.Int64Counter(
		"model.assets.processed",
		metric.WithDescription("Assets whose loss vectors were pooled"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create processed counter: %w", err)
	}

	metrics.excludedCounter, err = meter.Int64Counter(
		"model.assets.excluded",
		metric.WithDescription("Assets excluded because their key set was empty"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create excluded counter: %w", err)
	}

	return metrics, nil
}

// recordRun creates an OpenTelemetry span and records metrics for one
// aggregation run. It is called after the run completes so that
// observability never sits on the numeric path.
//
// The span includes:
// - run.id, run.scenario, run.year, run.sims as attributes
// - asset, pool, and exclusion counts
// - duration in milliseconds
// - status: OK on success, Error with the run error otherwise
//
// Metrics recorded:
// - model.run.duration: histogram of run durations
// - model.assets.processed: counter of pooled assets
// - model.assets.excluded: counter of empty-key-set exclusions
//
// If OTel is not configured (nil tracer/meter), this method returns silently.
func (m *defaultModel) recordRun(
	ctx context.Context,
	runID, scenario string,
	year, sims int,
	stats *runStats,
	duration time.Duration,
	runErr error,
) {
	// Graceful handling: skip if OTel not configured
	if m.tracer == nil && m.metrics == nil {
		return
	}

	// Create span if tracer configured
	if m.tracer != nil {
		_, span := m.tracer.Start(ctx, "model.run")

		span.SetAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.scenario", scenario),
			attribute.Int("run.year", year),
			attribute.Int("run.sims", sims),
			attribute.Int("run.assets", stats.assets),
			attribute.Int("run.pools", stats.pools),
			attribute.Int("run.excluded_assets", stats.excluded),
			attribute.Float64("run.duration_ms", float64(duration.Milliseconds())),
		)

		if runErr != nil {
			span.RecordError(runErr)
			span.SetStatus(codes.Error, runErr.Error())
		} else {
			span.SetStatus(codes.Ok, fmt.Sprintf("aggregated %d assets into %d pools", stats.processed, stats.pools))
		}

		span.End()
	}

	// Record metrics if meter configured
	if m.metrics != nil {
		opts := metric.WithAttributes(
			attribute.String("run.scenario", scenario),
		)

		m.metrics.durationHistogram.Record(ctx, float64(duration.Milliseconds()), opts)

		if stats.processed > 0 {
			m.metrics.processedCounter.Add(ctx, int64(stats.processed), opts)
		}
		if stats.excluded > 0 {
			m.metrics.excludedCounter.Add(ctx, int64(stats.excluded), opts)
		}
	}
}
