package sdk

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perilpool/sdk/aggregation"
	"github.com/perilpool/sdk/asset"
	"github.com/perilpool/sdk/exposure"
	"github.com/perilpool/sdk/hazard"
	"github.com/perilpool/sdk/impact"
	"github.com/perilpool/sdk/measure"
)

// stubDistribution lets tests control classification and curve behavior
// independently of the histogram implementation.
type stubDistribution struct {
	typ      impact.Type
	event    hazard.Event
	curve    impact.Curve
	curveErr error
}

func (d *stubDistribution) ImpactType() impact.Type { return d.typ }

func (d *stubDistribution) Event() hazard.Event { return d.event }

func (d *stubDistribution) ExceedanceCurve() (impact.Curve, error) {
	if d.curveErr != nil {
		return nil, d.curveErr
	}
	return d.curve, nil
}

// stepCurve yields high for draws at or below the threshold probability and
// zero above it. The piecewise-linear curve cannot express this jump, which
// is exactly what makes it useful for verifying sampling behavior.
type stepCurve struct {
	threshold float64
	high      float64
}

func (c stepCurve) Samples(uniforms []float64) []float64 {
	out := make([]float64, len(uniforms))
	for i, u := range uniforms {
		if u <= c.threshold {
			out[i] = c.high
		}
	}
	return out
}

// rampCurve maps a draw u to the impact 1-u, so sampled impacts mirror the
// uniform stream exactly.
func rampCurve(t *testing.T) impact.Curve {
	t.Helper()
	curve, err := impact.NewExceedCurve([]float64{1, 0}, []float64{0, 1})
	require.NoError(t, err)
	return curve
}

// sourceFor serves fixed distributions keyed by asset ID.
func sourceFor(dists map[string]impact.Distribution) impact.Source {
	return impact.SourceFunc(func(_ context.Context, assets []asset.Asset, _ string, _ int) (map[asset.Asset]impact.Result, error) {
		out := make(map[asset.Asset]impact.Result, len(assets))
		for _, a := range assets {
			if d, ok := dists[a.ID()]; ok {
				out[a] = impact.Result{Distribution: d}
			}
		}
		return out, nil
	})
}

type valueCall struct {
	assetID  string
	currency string
}

type cashflowCall struct {
	assetID  string
	currency string
	start    time.Time
	end      time.Time
}

// recordingProvider captures every exposure lookup the engine makes.
type recordingProvider struct {
	values        map[string]float64
	cashflows     map[string]float64
	err           error
	valueCalls    []valueCall
	cashflowCalls []cashflowCall
}

func (p *recordingProvider) GetAssetValue(_ context.Context, a asset.Asset, currency string) (float64, error) {
	p.valueCalls = append(p.valueCalls, valueCall{assetID: a.ID(), currency: currency})
	if p.err != nil {
		return 0, p.err
	}
	return p.values[a.ID()], nil
}

func (p *recordingProvider) GetAssetAggregateCashflows(_ context.Context, a asset.Asset, start, end time.Time, currency string) (float64, error) {
	p.cashflowCalls = append(p.cashflowCalls, cashflowCall{assetID: a.ID(), currency: currency, start: start, end: end})
	if p.err != nil {
		return 0, p.err
	}
	return p.cashflows[a.ID()], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestModel(t *testing.T, source impact.Source, opts ...ModelOption) Model {
	t.Helper()

	model, err := NewModel(append([]ModelOption{
		WithImpactSource(source),
		WithLogger(discardLogger()),
	}, opts...)...)
	require.NoError(t, err)
	return model
}

func TestNewModelRequiresImpactSource(t *testing.T) {
	_, err := NewModel()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoImpactSource)
	assert.ErrorIs(t, err, &Error{Kind: KindConfiguration})
}

func TestGetFinancialImpactsStepCurve(t *testing.T) {
	plant := &asset.Base{AssetID: "plant-1"}
	source := sourceFor(map[string]impact.Distribution{
		"plant-1": &stubDistribution{
			typ:   impact.TypeDamage,
			event: hazard.EventWildfire,
			curve: stepCurve{threshold: 0.3, high: 0.5},
		},
	})
	provider := &recordingProvider{values: map[string]float64{"plant-1": 1000}}
	model := newTestModel(t, source)

	measures, err := model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{plant}, provider, "ssp585", 2050,
		WithSims(10000))
	require.NoError(t, err)
	require.Len(t, measures, 2, "default policy pools by event and grand total")

	root, ok := measures[aggregation.KeyTotal]
	require.True(t, ok)
	wildfire, ok := measures[aggregation.Key("Wildfire")]
	require.True(t, ok)
	assert.Equal(t, root, wildfire, "a single asset's pools hold identical vectors")

	require.Equal(t, measure.DefaultPercentiles, root.Percentiles)
	require.Len(t, root.PercentileValues, len(measure.DefaultPercentiles))
	for i := 1; i < len(root.PercentileValues); i++ {
		assert.GreaterOrEqual(t, root.PercentileValues[i], root.PercentileValues[i-1])
	}

	// A 30% chance of losing half of 1000 puts the mean near 150, leaves the
	// 60th percentile at zero, and saturates everything from the 80th up.
	assert.InDelta(t, 150.0, root.Mean, 10.0)
	assert.Equal(t, 0.0, root.PercentileValues[0])
	assert.Equal(t, 0.0, root.PercentileValues[4])
	assert.Equal(t, 500.0, root.PercentileValues[5])
	assert.Equal(t, 500.0, root.PercentileValues[9])
}

func TestGetFinancialImpactsDeterminism(t *testing.T) {
	plant := &asset.Base{AssetID: "plant-1"}
	source := sourceFor(map[string]impact.Distribution{
		"plant-1": &stubDistribution{
			typ:   impact.TypeDamage,
			event: hazard.EventDrought,
			curve: rampCurve(t),
		},
	})
	provider := &recordingProvider{values: map[string]float64{"plant-1": 1000}}
	model := newTestModel(t, source)
	ctx := context.Background()
	assets := []asset.Asset{plant}

	first, err := model.GetFinancialImpacts(ctx, assets, provider, "ssp585", 2050,
		WithSims(500), WithSeed(7))
	require.NoError(t, err)

	second, err := model.GetFinancialImpacts(ctx, assets, provider, "ssp585", 2050,
		WithSims(500), WithSeed(7))
	require.NoError(t, err)
	assert.Equal(t, first, second, "same seed must reproduce the run exactly")

	third, err := model.GetFinancialImpacts(ctx, assets, provider, "ssp585", 2050,
		WithSims(500), WithSeed(8))
	require.NoError(t, err)
	assert.NotEqual(t,
		first[aggregation.KeyTotal].Mean,
		third[aggregation.KeyTotal].Mean,
		"a different seed should move the sampled mean")
}

func TestGetFinancialImpactsWithGeneratorMatchesSeed(t *testing.T) {
	plant := &asset.Base{AssetID: "plant-1"}
	source := sourceFor(map[string]impact.Distribution{
		"plant-1": &stubDistribution{
			typ:   impact.TypeDamage,
			event: hazard.EventHail,
			curve: rampCurve(t),
		},
	})
	provider := &recordingProvider{values: map[string]float64{"plant-1": 50}}
	model := newTestModel(t, source)
	ctx := context.Background()
	assets := []asset.Asset{plant}

	seeded, err := model.GetFinancialImpacts(ctx, assets, provider, "ssp585", 2050,
		WithSims(200), WithSeed(5))
	require.NoError(t, err)

	injected, err := model.GetFinancialImpacts(ctx, assets, provider, "ssp585", 2050,
		WithSims(200), WithGenerator(rand.New(rand.NewPCG(5, 0))))
	require.NoError(t, err)

	assert.Equal(t, seeded, injected)
}

func TestGetFinancialImpactsMatchesManualComputation(t *testing.T) {
	const sims = 300
	const value = 250.0
	const seed = 99

	plant := &asset.Base{AssetID: "plant-1"}
	source := sourceFor(map[string]impact.Distribution{
		"plant-1": &stubDistribution{
			typ:   impact.TypeDamage,
			event: hazard.EventWindStorm,
			curve: rampCurve(t),
		},
	})
	provider := &recordingProvider{values: map[string]float64{"plant-1": value}}
	model := newTestModel(t, source)

	measures, err := model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{plant}, provider, "ssp585", 2050,
		WithSims(sims), WithSeed(seed))
	require.NoError(t, err)

	// Mirror the engine's draw stream: the ramp curve turns each uniform u
	// into the impact 1-u, scaled by the asset value.
	generator := rand.New(rand.NewPCG(seed, 0))
	loss := make([]float64, sims)
	for i := range loss {
		loss[i] = (1 - generator.Float64()) * value
	}
	want := measure.FromSamples(loss)

	assert.Equal(t, want, measures[aggregation.KeyTotal])
	assert.Equal(t, want, measures[aggregation.Key("WindStorm")])
}

func TestGetFinancialImpactsDualKeying(t *testing.T) {
	const sims = 250
	const seed = 17

	plantA := &asset.Base{AssetID: "plant-a"}
	plantB := &asset.Base{AssetID: "plant-b"}
	ramp := rampCurve(t)
	source := sourceFor(map[string]impact.Distribution{
		"plant-a": &stubDistribution{typ: impact.TypeDamage, event: hazard.EventWildfire, curve: ramp},
		"plant-b": &stubDistribution{typ: impact.TypeDamage, event: hazard.EventWildfire, curve: ramp},
	})
	provider := &recordingProvider{values: map[string]float64{"plant-a": 100, "plant-b": 200}}

	policy := aggregation.AggregatorFunc(func(a asset.Asset, _ impact.Distribution) []aggregation.Key {
		return []aggregation.Key{"shared", aggregation.Key(a.ID())}
	})

	model := newTestModel(t, source)
	measures, err := model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{plantA, plantB}, provider, "ssp585", 2050,
		WithSims(sims), WithSeed(seed), WithAggregator(policy))
	require.NoError(t, err)
	require.Len(t, measures, 3)

	// Mirror both assets' draws in input order; each asset is sampled once
	// and its vector lands in both of its pools.
	generator := rand.New(rand.NewPCG(seed, 0))
	lossA := make([]float64, sims)
	for i := range lossA {
		lossA[i] = (1 - generator.Float64()) * 100
	}
	lossB := make([]float64, sims)
	for i := range lossB {
		lossB[i] = (1 - generator.Float64()) * 200
	}
	shared := make([]float64, sims)
	for i := range shared {
		shared[i] = lossA[i] + lossB[i]
	}

	assert.Equal(t, measure.FromSamples(lossA), measures[aggregation.Key("plant-a")])
	assert.Equal(t, measure.FromSamples(lossB), measures[aggregation.Key("plant-b")])
	assert.Equal(t, measure.FromSamples(shared), measures[aggregation.Key("shared")])
}

func TestGetFinancialImpactsExposureBranching(t *testing.T) {
	damaged := &asset.Base{AssetID: "damaged-1"}
	disrupted := &asset.Base{AssetID: "disrupted-1"}
	ramp := rampCurve(t)
	source := sourceFor(map[string]impact.Distribution{
		"damaged-1":   &stubDistribution{typ: impact.TypeDamage, event: hazard.EventWildfire, curve: ramp},
		"disrupted-1": &stubDistribution{typ: impact.TypeDisruption, event: hazard.EventDrought, curve: ramp},
	})
	provider := &recordingProvider{
		values:    map[string]float64{"damaged-1": 1000},
		cashflows: map[string]float64{"disrupted-1": 365},
	}
	model := newTestModel(t, source)

	_, err := model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{damaged, disrupted}, provider, "ssp585", 2050,
		WithSims(10))
	require.NoError(t, err)

	require.Len(t, provider.valueCalls, 1, "damage impacts resolve asset value")
	assert.Equal(t, valueCall{assetID: "damaged-1", currency: "EUR"}, provider.valueCalls[0])

	require.Len(t, provider.cashflowCalls, 1, "disruption impacts resolve cashflows")
	call := provider.cashflowCalls[0]
	assert.Equal(t, "disrupted-1", call.assetID)
	assert.Equal(t, "EUR", call.currency)
	assert.Equal(t, time.Date(2050, time.January, 1, 0, 0, 0, 0, time.UTC), call.start)
	assert.Equal(t, time.Date(2050, time.December, 31, 0, 0, 0, 0, time.UTC), call.end)
}

func TestGetFinancialImpactsCurrencyOverride(t *testing.T) {
	plant := &asset.Base{AssetID: "plant-1"}
	source := sourceFor(map[string]impact.Distribution{
		"plant-1": &stubDistribution{typ: impact.TypeDamage, event: hazard.EventWildfire, curve: rampCurve(t)},
	})
	provider := &recordingProvider{values: map[string]float64{"plant-1": 1000}}
	model := newTestModel(t, source)

	_, err := model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{plant}, provider, "ssp585", 2050,
		WithSims(10), WithCurrency("USD"))
	require.NoError(t, err)

	require.Len(t, provider.valueCalls, 1)
	assert.Equal(t, "USD", provider.valueCalls[0].currency)
}

func TestGetFinancialImpactsInvalidSims(t *testing.T) {
	computeCalls := 0
	source := impact.SourceFunc(func(_ context.Context, _ []asset.Asset, _ string, _ int) (map[asset.Asset]impact.Result, error) {
		computeCalls++
		return nil, nil
	})
	provider := &recordingProvider{}
	model := newTestModel(t, source)

	for _, sims := range []int{0, -5} {
		_, err := model.GetFinancialImpacts(context.Background(),
			[]asset.Asset{&asset.Base{AssetID: "plant-1"}}, provider, "ssp585", 2050,
			WithSims(sims))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidSims)
		assert.ErrorIs(t, err, &Error{Kind: KindValidation})
	}

	assert.Zero(t, computeCalls, "invalid sims must fail before any impact computation")
	assert.Empty(t, provider.valueCalls)
}

func TestGetFinancialImpactsUnknownImpactType(t *testing.T) {
	plant := &asset.Base{AssetID: "plant-1"}
	source := sourceFor(map[string]impact.Distribution{
		"plant-1": &stubDistribution{
			typ:   impact.Type("contingent"),
			event: hazard.EventWildfire,
			curve: rampCurve(t),
		},
	})
	model := newTestModel(t, source)

	_, err := model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{plant}, &recordingProvider{}, "ssp585", 2050,
		WithSims(10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownImpactType)
	assert.ErrorIs(t, err, &Error{Kind: KindImpact})

	var engineErr *Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, "plant-1", engineErr.Context["asset_id"])
}

func TestGetFinancialImpactsMissingImpact(t *testing.T) {
	covered := &asset.Base{AssetID: "covered-1"}
	uncovered := &asset.Base{AssetID: "uncovered-1"}
	source := sourceFor(map[string]impact.Distribution{
		"covered-1": &stubDistribution{typ: impact.TypeDamage, event: hazard.EventWildfire, curve: rampCurve(t)},
	})
	provider := &recordingProvider{values: map[string]float64{"covered-1": 100}}
	model := newTestModel(t, source)

	_, err := model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{covered, uncovered}, provider, "ssp585", 2050,
		WithSims(10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingImpact)

	var engineErr *Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, "uncovered-1", engineErr.Context["asset_id"])
}

func TestGetFinancialImpactsExposureFailure(t *testing.T) {
	plant := &asset.Base{AssetID: "plant-1"}
	source := sourceFor(map[string]impact.Distribution{
		"plant-1": &stubDistribution{typ: impact.TypeDamage, event: hazard.EventWildfire, curve: rampCurve(t)},
	})
	// A provider with no entries fails every lookup.
	model := newTestModel(t, source)

	_, err := model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{plant}, exposure.NewStatic("EUR"), "ssp585", 2050,
		WithSims(10))
	require.Error(t, err)
	assert.ErrorIs(t, err, exposure.ErrUnknownAsset)
	assert.ErrorIs(t, err, &Error{Kind: KindExposure})
	assert.Contains(t, err.Error(), "plant-1", "asset identity must survive into the error")
}

func TestGetFinancialImpactsUnsampleableDistribution(t *testing.T) {
	plant := &asset.Base{AssetID: "plant-1"}

	// All mass below the first edge leaves a single-point curve.
	degenerate, err := impact.NewDistrib(hazard.EventWildfire, impact.TypeDamage,
		[]float64{0, 1}, []float64{0})
	require.NoError(t, err)

	source := sourceFor(map[string]impact.Distribution{"plant-1": degenerate})
	provider := &recordingProvider{values: map[string]float64{"plant-1": 100}}
	model := newTestModel(t, source)

	_, err = model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{plant}, provider, "ssp585", 2050,
		WithSims(10))
	require.Error(t, err)
	assert.ErrorIs(t, err, impact.ErrCurveTooShort)
	assert.ErrorIs(t, err, &Error{Kind: KindImpact})

	var engineErr *Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, "plant-1", engineErr.Context["asset_id"])
}

func TestGetFinancialImpactsEmptyKeySet(t *testing.T) {
	const sims = 120
	const seed = 23

	skipped := &asset.Base{AssetID: "skip-1"}
	pooled := &asset.Base{AssetID: "plant-2"}
	ramp := rampCurve(t)
	source := sourceFor(map[string]impact.Distribution{
		"skip-1":  &stubDistribution{typ: impact.TypeDamage, event: hazard.EventWildfire, curve: ramp},
		"plant-2": &stubDistribution{typ: impact.TypeDamage, event: hazard.EventWildfire, curve: ramp},
	})
	provider := &recordingProvider{values: map[string]float64{"skip-1": 100, "plant-2": 40}}

	policy := aggregation.AggregatorFunc(func(a asset.Asset, _ impact.Distribution) []aggregation.Key {
		if a.ID() == "skip-1" {
			return nil
		}
		return []aggregation.Key{aggregation.KeyTotal}
	})

	var logBuf bytes.Buffer
	model := newTestModel(t, source,
		WithLogger(slog.New(slog.NewTextHandler(&logBuf, nil))))

	measures, err := model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{skipped, pooled}, provider, "ssp585", 2050,
		WithSims(sims), WithSeed(seed), WithAggregator(policy))
	require.NoError(t, err, "an empty key set must not fail the run")
	require.Len(t, measures, 1, "only the pooled asset contributes")

	logOutput := logBuf.String()
	assert.Contains(t, logOutput, "keyed into no pools")
	assert.Contains(t, logOutput, "skip-1")
	assert.Contains(t, logOutput, "level=WARN")

	// The excluded asset still consumed its draws, so the pooled asset's
	// vector starts one asset into the stream.
	generator := rand.New(rand.NewPCG(seed, 0))
	for i := 0; i < sims; i++ {
		generator.Float64()
	}
	loss := make([]float64, sims)
	for i := range loss {
		loss[i] = (1 - generator.Float64()) * 40
	}
	assert.Equal(t, measure.FromSamples(loss), measures[aggregation.KeyTotal])
}

func TestGetFinancialImpactsImpactSourceError(t *testing.T) {
	sourceErr := errors.New("hazard service unavailable")
	source := impact.SourceFunc(func(_ context.Context, _ []asset.Asset, _ string, _ int) (map[asset.Asset]impact.Result, error) {
		return nil, sourceErr
	})
	model := newTestModel(t, source)

	_, err := model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{&asset.Base{AssetID: "plant-1"}}, &recordingProvider{}, "ssp585", 2050,
		WithSims(10))
	require.Error(t, err)
	assert.ErrorIs(t, err, sourceErr)
	assert.ErrorIs(t, err, &Error{Kind: KindImpact})
}

func TestGetFinancialImpactsSingleSample(t *testing.T) {
	plant := &asset.Base{AssetID: "plant-1"}
	source := sourceFor(map[string]impact.Distribution{
		"plant-1": &stubDistribution{
			typ:   impact.TypeDamage,
			event: hazard.EventWildfire,
			curve: stepCurve{threshold: 1.1, high: 0.5},
		},
	})
	provider := &recordingProvider{values: map[string]float64{"plant-1": 1000}}
	model := newTestModel(t, source)

	measures, err := model.GetFinancialImpacts(context.Background(),
		[]asset.Asset{plant}, provider, "ssp585", 2050,
		WithSims(1))
	require.NoError(t, err)

	root := measures[aggregation.KeyTotal]
	assert.Equal(t, 500.0, root.Mean)
	for _, v := range root.PercentileValues {
		assert.Equal(t, 500.0, v, "a single sample pins every percentile")
	}
}

func TestGetFinancialImpactsNoAssets(t *testing.T) {
	source := sourceFor(nil)
	model := newTestModel(t, source)

	measures, err := model.GetFinancialImpacts(context.Background(),
		nil, &recordingProvider{}, "ssp585", 2050,
		WithSims(100))
	require.NoError(t, err)
	assert.Empty(t, measures)
}
