package volatility

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"YieldScope/internal/domain/models"
)

// Baseline summarizes a series without producing a recommendation: latest
// value, realized volatility over short lookbacks and moving averages.
// An empty series yields a no_data result.
func Baseline(series models.Series) *models.BaselineMetrics {
	series = series.Dedupe()
	out := &models.BaselineMetrics{
		Status:      models.StatusNoData,
		SampleCount: len(series),
	}
	if len(series) == 0 {
		return out
	}

	last := series[len(series)-1]
	out.Status = models.StatusOK
	out.InstrumentID = last.InstrumentID
	out.LatestValue = last.Value
	out.LatestDate = last.Date

	values := series.Values()
	out.Vol1D = realizedVol(values, 2)
	out.Vol5D = realizedVol(values, 6)
	out.Vol30D = realizedVol(values, 31)
	out.MA5 = trailingMean(values, 5)
	out.MA20 = trailingMean(values, 20)
	return out
}

// realizedVol annualizes the standard deviation of first differences over
// the trailing n observations. Returns 0 when history is too short.
func realizedVol(values []float64, n int) float64 {
	if len(values) < n || n < 2 {
		return 0
	}
	tail := values[len(values)-n:]
	diffs := make([]float64, len(tail)-1)
	for i := 1; i < len(tail); i++ {
		diffs[i-1] = tail[i] - tail[i-1]
	}
	if len(diffs) < 2 {
		// a single diff has no spread; report its magnitude annualized
		return math.Abs(diffs[0]) * math.Sqrt(TradingDaysPerYear)
	}
	return stat.StdDev(diffs, nil) * math.Sqrt(TradingDaysPerYear)
}

func trailingMean(values []float64, n int) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) < n {
		n = len(values)
	}
	return stat.Mean(values[len(values)-n:], nil)
}
