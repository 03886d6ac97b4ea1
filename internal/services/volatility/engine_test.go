package volatility

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"YieldScope/internal/domain/models"
)

func makeSeries(t *testing.T, values []float64) models.Series {
	t.Helper()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(models.Series, len(values))
	for i, v := range values {
		s[i] = models.TimeSeriesPoint{
			Date:         start.AddDate(0, 0, i),
			InstrumentID: "UST10Y",
			Value:        v,
		}
	}
	return s
}

// alternating steps of the given size produce a rolling volatility close to
// step * sqrt(252) once the window is filled
func alternating(base, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = base
		if i%2 == 1 {
			out[i] = base + step
		}
	}
	return out
}

func TestAnalyzeInsufficientData(t *testing.T) {
	e := NewEngine()
	sig, err := e.Analyze(makeSeries(t, alternating(4.0, 0.01, 20)), Params{WindowDays: 30})
	require.ErrorIs(t, err, ErrInsufficientData)
	assert.Equal(t, models.StatusNoData, sig.Status)
	assert.Empty(t, sig.Signal)
}

func TestAnalyzeFlatSeriesHolds(t *testing.T) {
	e := NewEngine()
	values := make([]float64, 120)
	for i := range values {
		values[i] = 4.25
	}
	sig, err := e.Analyze(makeSeries(t, values), Params{WindowDays: 30})
	require.NoError(t, err)

	assert.Equal(t, models.StatusOK, sig.Status)
	assert.Zero(t, sig.CurrentVolatility)
	assert.Equal(t, models.SignalHold, sig.Signal)
	assert.Equal(t, models.StrengthNeutral, sig.Strength)
	assert.Equal(t, 0.5, sig.ConfidenceBreakdown.VolatilityConsistency)
}

func TestAnalyzeElevatedVolatilitySells(t *testing.T) {
	e := NewEngine()
	values := alternating(4.0, 0.01, 260)
	values = append(values, alternating(4.0, 0.30, 40)...)
	sig, err := e.Analyze(makeSeries(t, values), Params{WindowDays: 30})
	require.NoError(t, err)

	assert.Equal(t, models.SignalSellVolatility, sig.Signal)
	assert.Greater(t, sig.CurrentVolatility, sig.HighThreshold)
	assert.Equal(t, 100.0, sig.Percentile)
	assert.NotEmpty(t, sig.Rationale)
}

func TestAnalyzeDepressedVolatilityBuys(t *testing.T) {
	e := NewEngine()
	values := alternating(4.0, 0.30, 260)
	values = append(values, alternating(4.0, 0.0005, 60)...)
	sig, err := e.Analyze(makeSeries(t, values), Params{WindowDays: 30})
	require.NoError(t, err)

	assert.Equal(t, models.SignalBuyVolatility, sig.Signal)
	assert.Equal(t, models.StrengthModerate, sig.Strength)
	assert.Less(t, sig.CurrentVolatility, sig.LowThreshold)
}

// Pins the documented strength boundary: with mean 10% and std 2% the high
// threshold is 12%, and STRONG requires current above 18% (1.5x the high
// threshold). 15% sells at MODERATE strength.
func TestClassifyStrengthBoundary(t *testing.T) {
	high, low := 0.12, 0.09

	signal, strength := classify(0.15, high, low)
	assert.Equal(t, models.SignalSellVolatility, signal)
	assert.Equal(t, models.StrengthModerate, strength)

	signal, strength = classify(0.19, high, low)
	assert.Equal(t, models.SignalSellVolatility, signal)
	assert.Equal(t, models.StrengthStrong, strength)

	// exactly 1.5x the high threshold is not strictly above it
	signal, strength = classify(0.18, high, low)
	assert.Equal(t, models.SignalSellVolatility, signal)
	assert.Equal(t, models.StrengthModerate, strength)

	signal, strength = classify(0.10, high, low)
	assert.Equal(t, models.SignalHold, signal)
	assert.Equal(t, models.StrengthNeutral, strength)

	signal, strength = classify(0.05, high, low)
	assert.Equal(t, models.SignalBuyVolatility, signal)
	assert.Equal(t, models.StrengthModerate, strength)
}

func TestRollingVolatilityKnownValues(t *testing.T) {
	// diffs are 1,2,3,4; every 2-wide window has sample stddev 1/sqrt(2)
	s := makeSeries(t, []float64{1, 2, 4, 7, 11})
	obs := RollingVolatility(s, 2)
	require.Len(t, obs, 3)

	want := math.Sqrt(0.5) * math.Sqrt(TradingDaysPerYear)
	for _, o := range obs {
		assert.InDelta(t, want, o.RollingVolatility, 1e-9)
	}
	assert.Equal(t, s[2].Date, obs[0].Date)
	assert.Equal(t, s[4].Date, obs[2].Date)
}

func TestRollingVolatilityTooShort(t *testing.T) {
	s := makeSeries(t, []float64{1, 2, 3})
	assert.Nil(t, RollingVolatility(s, 3))
}

func TestConfidenceUsesEventCoverage(t *testing.T) {
	e := NewEngine(WithEventsPerYear(8), WithLookbackYears(1))
	values := alternating(4.0, 0.02, 252)
	series := makeSeries(t, values)

	events := []time.Time{
		series[40].Date,
		series[100].Date,
		series[200].Date,
		time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), // outside the range
	}
	sig, err := e.Analyze(series, Params{WindowDays: 30, LookbackYears: 1, EventDates: events})
	require.NoError(t, err)

	assert.InDelta(t, 3.0/8.0, sig.ConfidenceBreakdown.EventCoverage, 1e-9)
	assert.InDelta(t, 1.0, sig.ConfidenceBreakdown.DataCompleteness, 1e-9)
	assert.Greater(t, sig.AvgEventVolatility, 0.0)
}

func TestAnalyzeNoEventsZeroCoverage(t *testing.T) {
	e := NewEngine()
	sig, err := e.Analyze(makeSeries(t, alternating(4.0, 0.02, 120)), Params{WindowDays: 30})
	require.NoError(t, err)
	assert.Zero(t, sig.ConfidenceBreakdown.EventCoverage)
	assert.Zero(t, sig.AvgEventVolatility)
}

func TestMonitorOnlyBelowThreshold(t *testing.T) {
	// short history drags completeness down far enough to stay sub-threshold
	e := NewEngine(WithConfidenceThreshold(0.9), WithLookbackYears(2))
	sig, err := e.Analyze(makeSeries(t, alternating(4.0, 0.02, 60)), Params{WindowDays: 30})
	require.NoError(t, err)
	assert.Equal(t, models.StatusMonitorOnly, sig.RecommendationStatus)
}

func TestDuplicateDatesLastWins(t *testing.T) {
	s := makeSeries(t, []float64{1, 2, 3})
	dup := s[2]
	dup.Value = 99
	s = append(s, dup)

	deduped := s.Dedupe()
	require.Len(t, deduped, 3)
	assert.Equal(t, 99.0, deduped[2].Value)
}

func TestBaselineEmptySeries(t *testing.T) {
	b := Baseline(nil)
	assert.Equal(t, models.StatusNoData, b.Status)
	assert.Zero(t, b.SampleCount)
}

func TestBaselineKnownAverages(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	b := Baseline(makeSeries(t, values))

	require.Equal(t, models.StatusOK, b.Status)
	assert.Equal(t, 10.0, b.LatestValue)
	assert.Equal(t, 10, b.SampleCount)
	assert.InDelta(t, 8.0, b.MA5, 1e-9)   // mean of 6..10
	assert.InDelta(t, 5.5, b.MA20, 1e-9)  // falls back to the full series
	assert.Zero(t, b.Vol30D)              // too short for a 30-day lookback
	assert.Zero(t, b.Vol5D)               // constant diffs have no spread
}
