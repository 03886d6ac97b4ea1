package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"YieldScope/internal/domain/models"
	"YieldScope/internal/services/volatility"
	"YieldScope/pkg/cache"
	applogger "YieldScope/pkg/logger"
)

type fakeProvider struct {
	mu     sync.Mutex
	series map[string]models.Series
	calls  int
}

func (p *fakeProvider) FetchSeries(_ context.Context, instrumentID string, _, _ time.Time) (models.Series, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.series[instrumentID], nil
}

func (p *fakeProvider) Health(context.Context) error { return nil }
func (p *fakeProvider) Close() error                 { return nil }

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeSink struct {
	mu     sync.Mutex
	alerts []*models.Alert
	fail   bool
}

func (s *fakeSink) Deliver(_ context.Context, a *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return context.DeadlineExceeded
	}
	s.alerts = append(s.alerts, a)
	return nil
}

func (s *fakeSink) Name() string { return "fake" }
func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) delivered() []*models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Alert(nil), s.alerts...)
}

type noopMetrics struct{}

func (noopMetrics) RecordCacheLookup(string)        {}
func (noopMetrics) RecordAnalysis(string)           {}
func (noopMetrics) RecordSimulation(string)         {}
func (noopMetrics) RecordAlertSent(string, string)  {}
func (noopMetrics) RecordError(string)              {}
func (noopMetrics) RecordVolatility(string, float64) {}
func (noopMetrics) RecordLatency(string, float64)   {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return l
}

func steppedSeries(instrument string, calmSteps, stressSteps int) models.Series {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n := calmSteps + stressSteps
	s := make(models.Series, n)
	for i := 0; i < n; i++ {
		step := 0.01
		if i >= calmSteps {
			step = 0.35
		}
		v := 4.0
		if i%2 == 1 {
			v += step
		}
		s[i] = models.TimeSeriesPoint{Date: start.AddDate(0, 0, i), InstrumentID: instrument, Value: v}
	}
	return s
}

func newAnalysis(t *testing.T, provider *fakeProvider, sinks ...*fakeSink) (*Analysis, *cache.MemoryStore) {
	t.Helper()
	store := cache.NewMemoryStore(nil)
	engine := volatility.NewEngine(volatility.WithConfidenceThreshold(0.05))
	opts := []AnalysisOption{WithSeriesTTL(30)}
	for _, s := range sinks {
		opts = append(opts, WithAlertSinks(s))
	}
	return NewAnalysis(store, provider, engine, noopMetrics{}, testLogger(t), opts...), store
}

func TestVolatilityCachesSeries(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.Series{
		"UST10Y": steppedSeries("UST10Y", 260, 40),
	}}
	a, _ := newAnalysis(t, provider)

	req := &models.VolatilityRequest{Instrument: "UST10Y", WindowDays: 30, Lookback: 2}
	first, err := a.Volatility(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, models.StatusOK, first.Status)
	assert.Equal(t, 1, provider.callCount())

	second, err := a.Volatility(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.callCount(), "second call must hit the cache")
	assert.Equal(t, first.Signal, second.Signal)
}

func TestVolatilityNoUpstreamData(t *testing.T) {
	a, _ := newAnalysis(t, &fakeProvider{series: map[string]models.Series{}})

	sig, err := a.Volatility(context.Background(), &models.VolatilityRequest{Instrument: "UST5Y", WindowDays: 30, Lookback: 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoData, sig.Status)
	assert.Equal(t, "UST5Y", sig.InstrumentID)
}

func TestVolatilityShortHistoryNoData(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.Series{
		"UST30Y": steppedSeries("UST30Y", 10, 0),
	}}
	a, _ := newAnalysis(t, provider)

	sig, err := a.Volatility(context.Background(), &models.VolatilityRequest{Instrument: "UST30Y", WindowDays: 30, Lookback: 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoData, sig.Status)
}

func TestVolatilityActionableSellEmitsAlert(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.Series{
		"UST10Y": steppedSeries("UST10Y", 260, 40),
	}}
	sink := &fakeSink{}
	a, _ := newAnalysis(t, provider, sink)

	sig, err := a.Volatility(context.Background(), &models.VolatilityRequest{Instrument: "UST10Y", WindowDays: 30, Lookback: 2})
	require.NoError(t, err)
	require.Equal(t, models.SignalSellVolatility, sig.Signal)
	require.Equal(t, models.StatusActionable, sig.RecommendationStatus)

	alerts := sink.delivered()
	require.Len(t, alerts, 1)
	assert.Equal(t, "UST10Y", alerts[0].InstrumentID)
	assert.Equal(t, sig.Signal, alerts[0].Signal)
}

func TestVolatilitySinkFailureIsAbsorbed(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.Series{
		"UST10Y": steppedSeries("UST10Y", 260, 40),
	}}
	a, _ := newAnalysis(t, provider, &fakeSink{fail: true})

	_, err := a.Volatility(context.Background(), &models.VolatilityRequest{Instrument: "UST10Y", WindowDays: 30, Lookback: 2})
	assert.NoError(t, err)
}

func TestVolatilityHoldDoesNotAlert(t *testing.T) {
	flat := steppedSeries("UST5Y", 120, 0)
	provider := &fakeProvider{series: map[string]models.Series{"UST5Y": flat}}
	sink := &fakeSink{}
	a, _ := newAnalysis(t, provider, sink)

	sig, err := a.Volatility(context.Background(), &models.VolatilityRequest{Instrument: "UST5Y", WindowDays: 30, Lookback: 1})
	require.NoError(t, err)
	require.Equal(t, models.SignalHold, sig.Signal)
	assert.Empty(t, sink.delivered())
}

func TestBaselineFromCache(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.Series{
		"UST10Y": steppedSeries("UST10Y", 60, 0),
	}}
	a, _ := newAnalysis(t, provider)

	b, err := a.Baseline(context.Background(), &models.BaselineRequest{Instrument: "UST10Y", Lookback: 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOK, b.Status)
	assert.Equal(t, 60, b.SampleCount)

	_, err = a.Baseline(context.Background(), &models.BaselineRequest{Instrument: "UST10Y", Lookback: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.callCount())
}

func TestBaselineNoData(t *testing.T) {
	a, _ := newAnalysis(t, &fakeProvider{series: map[string]models.Series{}})
	b, err := a.Baseline(context.Background(), &models.BaselineRequest{Instrument: "UST13W", Lookback: 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoData, b.Status)
}

func TestSimulateRunCalibratesFromHistory(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.Series{
		"UST10Y": steppedSeries("UST10Y", 260, 0),
	}}
	a, _ := newAnalysis(t, provider)
	seed := uint64(11)

	sim := NewSimulate(a, noopMetrics{}, testLogger(t), WithSimCount(2000))
	res, err := sim.Run(context.Background(), &models.SimulateRequest{
		ForecastedYields: map[string]float64{models.Tenor10Y: 4.2, "7Y": 3.9},
		RegimeHint:       models.RegimeStress,
		Seed:             &seed,
	})
	require.NoError(t, err)

	valid := res.PerTenor[models.Tenor10Y]
	require.Empty(t, valid.Error)
	assert.Equal(t, 2000, valid.SimCount)
	assert.Less(t, valid.VaR95Bps, 0.0)
	assert.Contains(t, res.PerTenor["7Y"].Error, "unknown tenor")
	assert.Equal(t, "high", res.Interpretation.RiskLevel)
}

func TestSimulateRunMissingHistoryInline(t *testing.T) {
	a, _ := newAnalysis(t, &fakeProvider{series: map[string]models.Series{}})
	sim := NewSimulate(a, noopMetrics{}, testLogger(t))

	res, err := sim.Run(context.Background(), &models.SimulateRequest{
		ForecastedYields: map[string]float64{models.Tenor5Y: 4.0},
		RegimeHint:       models.RegimeNormal,
	})
	require.NoError(t, err)
	assert.Contains(t, res.PerTenor[models.Tenor5Y].Error, "no usable history")
}

func TestInvalidationHandlerPurges(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.Series{
		"UST10Y": steppedSeries("UST10Y", 60, 0),
	}}
	a, store := newAnalysis(t, provider)

	_, err := a.Baseline(context.Background(), &models.BaselineRequest{Instrument: "UST10Y", Lookback: 1})
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	h := NewInvalidationHandler("cache.invalidate", store, noopMetrics{}, testLogger(t))
	assert.Equal(t, "cache.invalidate", h.Topic())

	require.NoError(t, h.Handle(context.Background(), []byte(`{"key_or_prefix":"series:"}`)))
	assert.Zero(t, store.Len())

	// refetch after purge
	_, err = a.Baseline(context.Background(), &models.BaselineRequest{Instrument: "UST10Y", Lookback: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, provider.callCount())
}

func TestInvalidationHandlerRejectsBadEvents(t *testing.T) {
	h := NewInvalidationHandler("cache.invalidate", cache.NewMemoryStore(nil), noopMetrics{}, testLogger(t))
	assert.Error(t, h.Handle(context.Background(), []byte("not json")))
	assert.Error(t, h.Handle(context.Background(), []byte(`{}`)))
}
