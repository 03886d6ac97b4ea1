package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"YieldScope/internal/domain/models"
)

var testSigmas = map[string]float64{
	models.Tenor5Y:  0.04,
	models.Tenor10Y: 0.05,
	models.Tenor30Y: 0.06,
}

func simReq(regime string, tenors ...string) *models.SimulationRequest {
	yields := make(map[string]float64, len(tenors))
	for _, t := range tenors {
		yields[t] = 4.0
	}
	return &models.SimulationRequest{ForecastedYields: yields, RegimeHint: regime}
}

func TestSimulateUnknownRegimeFails(t *testing.T) {
	s := NewSimulator()
	_, err := s.Simulate(context.Background(), simReq("panic", models.Tenor10Y), testSigmas)
	require.Error(t, err)
}

func TestSimulateVarIsNegative(t *testing.T) {
	s := NewSimulator(WithSeed(42))
	res, err := s.Simulate(context.Background(), simReq(models.RegimeNormal, models.Tenor10Y), testSigmas)
	require.NoError(t, err)

	tr := res.PerTenor[models.Tenor10Y]
	require.Empty(t, tr.Error)
	assert.Equal(t, DefaultSimCount, tr.SimCount)
	// the 5th percentile of a zero-mean distribution sits well below zero
	assert.Less(t, tr.VaR95Bps, 0.0)
	assert.Less(t, tr.YieldRangeBps[0], tr.VaR95Bps)
	assert.Greater(t, tr.YieldRangeBps[1], 0.0)
}

func TestSimulateRegimeMonotonicity(t *testing.T) {
	widths := make(map[string]float64, 3)
	for _, regime := range []string{models.RegimeCalm, models.RegimeNormal, models.RegimeStress} {
		s := NewSimulator(WithSeed(7))
		res, err := s.Simulate(context.Background(), simReq(regime, models.Tenor10Y), testSigmas)
		require.NoError(t, err)
		tr := res.PerTenor[models.Tenor10Y]
		require.Empty(t, tr.Error)
		widths[regime] = tr.Sigma
	}
	assert.Less(t, widths[models.RegimeCalm], widths[models.RegimeNormal])
	assert.Less(t, widths[models.RegimeNormal], widths[models.RegimeStress])
}

func TestSimulateSeededReproducibility(t *testing.T) {
	run := func() *models.SimulationResult {
		s := NewSimulator(WithSeed(1234), WithWorkers(4))
		res, err := s.Simulate(context.Background(),
			simReq(models.RegimeStress, models.Tenor5Y, models.Tenor10Y, models.Tenor30Y), testSigmas)
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	assert.Equal(t, a.PerTenor, b.PerTenor)
}

func TestSimulateUnseededRunsDiffer(t *testing.T) {
	run := func() models.TenorResult {
		s := NewSimulator()
		res, err := s.Simulate(context.Background(), simReq(models.RegimeNormal, models.Tenor10Y), testSigmas)
		require.NoError(t, err)
		return res.PerTenor[models.Tenor10Y]
	}
	assert.NotEqual(t, run().VaR95Bps, run().VaR95Bps)
}

func TestSimulateInvalidTenorIsolated(t *testing.T) {
	s := NewSimulator(WithSeed(9))
	res, err := s.Simulate(context.Background(), simReq(models.RegimeNormal, models.Tenor10Y, "7Y"), testSigmas)
	require.NoError(t, err)

	require.Len(t, res.PerTenor, 2)
	assert.Empty(t, res.PerTenor[models.Tenor10Y].Error)
	assert.Contains(t, res.PerTenor["7Y"].Error, "unknown tenor")
	assert.Zero(t, res.PerTenor["7Y"].SimCount)
}

func TestSimulateMissingHistoryIsolated(t *testing.T) {
	s := NewSimulator(WithSeed(9))
	res, err := s.Simulate(context.Background(), simReq(models.RegimeNormal, models.Tenor10Y, models.Tenor13W), testSigmas)
	require.NoError(t, err)

	assert.Empty(t, res.PerTenor[models.Tenor10Y].Error)
	assert.Contains(t, res.PerTenor[models.Tenor13W].Error, "no usable history")
}

func TestSimulateInterpretationFollowsRegime(t *testing.T) {
	s := NewSimulator(WithSeed(1))
	res, err := s.Simulate(context.Background(), simReq(models.RegimeStress, models.Tenor10Y), testSigmas)
	require.NoError(t, err)
	assert.Equal(t, "high", res.Interpretation.RiskLevel)
	assert.NotEmpty(t, res.Interpretation.Guidance)

	res, err = s.Simulate(context.Background(), simReq(models.RegimeCalm, models.Tenor10Y), testSigmas)
	require.NoError(t, err)
	assert.Equal(t, "low", res.Interpretation.RiskLevel)
}

func TestHistoricalSigma(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	series := make(models.Series, 0, 6)
	for i, v := range []float64{4.0, 4.1, 4.0, 4.1, 4.0, 4.1} {
		series = append(series, models.TimeSeriesPoint{
			Date: start.AddDate(0, 0, i), InstrumentID: "UST10Y", Value: v,
		})
	}
	// diffs alternate +0.1/-0.1, sample stddev sqrt(0.012) ~ 0.1095
	assert.InDelta(t, 0.1095, HistoricalSigma(series), 1e-3)

	assert.Zero(t, HistoricalSigma(series[:2]))
	assert.Zero(t, HistoricalSigma(nil))
}
