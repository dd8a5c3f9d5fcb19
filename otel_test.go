package sdk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/perilpool/sdk/asset"
	"github.com/perilpool/sdk/hazard"
	"github.com/perilpool/sdk/impact"
)

func TestModelWithTracerRecordsRunSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	plant := &asset.Base{AssetID: "plant-1"}
	source := sourceFor(map[string]impact.Distribution{
		"plant-1": &stubDistribution{
			typ:   impact.TypeDamage,
			event: hazard.EventWildfire,
			curve: rampCurve(t),
		},
	})
	provider := &recordingProvider{values: map[string]float64{"plant-1": 1000}}
	model := newTestModel(t, source, WithTracer(tp.Tracer("test")))

	_, err := model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{plant}, provider, "ssp585", 2050,
		WithSims(100))
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "model.run", span.Name)
	assert.Equal(t, codes.Ok, span.Status.Code)
	assert.Contains(t, span.Attributes, attribute.String("run.scenario", "ssp585"))
	assert.Contains(t, span.Attributes, attribute.Int("run.year", 2050))
	assert.Contains(t, span.Attributes, attribute.Int("run.sims", 100))
	assert.Contains(t, span.Attributes, attribute.Int("run.assets", 1))
	assert.Contains(t, span.Attributes, attribute.Int("run.pools", 2))
}

func TestModelWithTracerRecordsFailedRun(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	// The source resolves no assets, so the run fails on the first lookup.
	plant := &asset.Base{AssetID: "plant-1"}
	source := sourceFor(map[string]impact.Distribution{})
	model := newTestModel(t, source, WithTracer(tp.Tracer("test")))

	_, err := model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{plant}, &recordingProvider{}, "ssp585", 2050,
		WithSims(100))
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	require.Len(t, spans[0].Events, 1, "failed runs record the error as a span event")
}

func TestModelWithMeter(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	plant := &asset.Base{AssetID: "plant-1"}
	source := sourceFor(map[string]impact.Distribution{
		"plant-1": &stubDistribution{
			typ:   impact.TypeDamage,
			event: hazard.EventWildfire,
			curve: rampCurve(t),
		},
	})
	provider := &recordingProvider{values: map[string]float64{"plant-1": 1000}}
	model := newTestModel(t, source, WithMeter(meter))

	impl, ok := model.(*defaultModel)
	require.True(t, ok)
	require.NotNil(t, impl.metrics)
	assert.NotNil(t, impl.metrics.durationHistogram)
	assert.NotNil(t, impl.metrics.processedCounter)
	assert.NotNil(t, impl.metrics.excludedCounter)

	// Recording through the noop instruments must not disturb the run.
	measures, err := model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{plant}, provider, "ssp585", 2050,
		WithSims(100))
	require.NoError(t, err)
	assert.Len(t, measures, 2)
}

func TestInitModelMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	metrics, err := initModelMetrics(meter)
	require.NoError(t, err)
	require.NotNil(t, metrics)
	assert.NotNil(t, metrics.durationHistogram)
	assert.NotNil(t, metrics.processedCounter)
	assert.NotNil(t, metrics.excludedCounter)
}

func TestRecordRunWithoutOTel(t *testing.T) {
	m := &defaultModel{logger: discardLogger()}

	// No tracer and no meter configured: recording is a no-op.
	stats := runStats{assets: 3, processed: 2, excluded: 1, pools: 4}
	m.recordRun(context.Background(), "run-1", "ssp585", 2050, 100, &stats, 5*time.Millisecond, nil)
}
