package volatility

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"YieldScope/internal/domain/models"
)

// TradingDaysPerYear is the annualization base for daily observations.
const TradingDaysPerYear = 252

// ErrInsufficientData is returned when the series is shorter than the
// rolling window requires. The result still carries a no_data status so
// callers can surface it without string matching.
var ErrInsufficientData = errors.New("insufficient observations for rolling window")

// Engine computes rolling volatility, regime classification and a
// confidence-scored signal from a yield series. It is a stateless value;
// all mutable state lives with the caller.
type Engine struct {
	windowDays          int
	lookbackYears       int
	eventsPerYear       float64
	confidenceThreshold float64
	eventWindowDays     int
}

// Option configures Engine.
type Option func(*Engine)

// WithWindowDays sets the rolling window length in trading days.
func WithWindowDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.windowDays = days
		}
	}
}

// WithLookbackYears sets the expected history depth used for completeness.
func WithLookbackYears(years int) Option {
	return func(e *Engine) {
		if years > 0 {
			e.lookbackYears = years
		}
	}
}

// WithEventsPerYear sets the expected cadence of scheduled events.
func WithEventsPerYear(n float64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.eventsPerYear = n
		}
	}
}

// WithConfidenceThreshold sets the ACTIONABLE cutoff.
func WithConfidenceThreshold(t float64) Option {
	return func(e *Engine) {
		if t > 0 {
			e.confidenceThreshold = t
		}
	}
}

// NewEngine creates an engine with production defaults.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		windowDays:          30,
		lookbackYears:       2,
		eventsPerYear:       8,
		confidenceThreshold: 0.7,
		eventWindowDays:     5,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Params overrides engine defaults for a single call. Zero values fall
// back to the engine configuration.
type Params struct {
	WindowDays    int
	LookbackYears int
	EventDates    []time.Time
}

// Analyze computes the regime signal for a date-ordered series.
// Series shorter than window+1 observations return a no_data result and
// ErrInsufficientData.
func (e *Engine) Analyze(series models.Series, p Params) (*models.RegimeSignal, error) {
	window := p.WindowDays
	if window <= 0 {
		window = e.windowDays
	}
	lookback := p.LookbackYears
	if lookback <= 0 {
		lookback = e.lookbackYears
	}

	series = series.Dedupe()
	out := &models.RegimeSignal{
		Status:       models.StatusNoData,
		Observations: len(series),
		AsOf:         time.Now().UTC(),
	}
	if len(series) > 0 {
		out.InstrumentID = series[0].InstrumentID
	}
	if len(series) < window+1 {
		return out, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(series), window+1)
	}

	obs := RollingVolatility(series, window)
	rolling := make([]float64, len(obs))
	for i, o := range obs {
		rolling[i] = o.RollingVolatility
	}

	current := rolling[len(rolling)-1]
	mean := stat.Mean(rolling, nil)
	std := 0.0
	if len(rolling) > 1 {
		std = stat.StdDev(rolling, nil)
	}
	high := mean + std
	low := mean - 0.5*std

	signal, strength := classify(current, high, low)

	breakdown := models.ConfidenceBreakdown{
		DataCompleteness:      clamp01(float64(len(series)) / float64(lookback*TradingDaysPerYear)),
		EventCoverage:         e.eventCoverage(series, p.EventDates, lookback),
		VolatilityConsistency: consistency(mean, std),
	}
	confidence := 0.4*breakdown.DataCompleteness + 0.3*breakdown.EventCoverage + 0.3*breakdown.VolatilityConsistency

	recStatus := models.StatusMonitorOnly
	if confidence >= e.confidenceThreshold {
		recStatus = models.StatusActionable
	}

	out.Status = models.StatusOK
	out.CurrentVolatility = current
	out.MeanVolatility = mean
	out.StdVolatility = std
	out.Percentile = percentileOf(current, rolling)
	out.HighThreshold = high
	out.LowThreshold = low
	out.Signal = signal
	out.Strength = strength
	out.Confidence = confidence
	out.ConfidenceBreakdown = breakdown
	out.RecommendationStatus = recStatus
	out.Rationale = rationale(signal, strength)
	out.AvgEventVolatility = e.eventWindowVolatility(obs, p.EventDates)
	return out, nil
}

// RollingVolatility computes annualized rolling volatility of first
// differences over the given window. The result has
// len(series) - window observations, dated at each window's end.
func RollingVolatility(series models.Series, window int) []models.VolatilityObservation {
	if len(series) < window+1 {
		return nil
	}
	values := series.Values()
	diffs := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		diffs[i-1] = values[i] - values[i-1]
	}

	ann := math.Sqrt(TradingDaysPerYear)
	out := make([]models.VolatilityObservation, 0, len(diffs)-window+1)
	for end := window; end <= len(diffs); end++ {
		sd := stat.StdDev(diffs[end-window:end], nil)
		out = append(out, models.VolatilityObservation{
			Date:              series[end].Date,
			RollingVolatility: sd * ann,
		})
	}
	return out
}

// classify applies the threshold rules. STRONG requires the current level
// to exceed 1.5 times the high threshold; BUY is always MODERATE.
func classify(current, high, low float64) (signal, strength string) {
	switch {
	case current > high:
		if current > 1.5*high {
			return models.SignalSellVolatility, models.StrengthStrong
		}
		return models.SignalSellVolatility, models.StrengthModerate
	case current < low:
		return models.SignalBuyVolatility, models.StrengthModerate
	default:
		return models.SignalHold, models.StrengthNeutral
	}
}

// percentileOf ranks v within the distribution on a 0-100 scale.
func percentileOf(v float64, dist []float64) float64 {
	if len(dist) == 0 {
		return 0
	}
	below := 0
	for _, d := range dist {
		if d <= v {
			below++
		}
	}
	return 100 * float64(below) / float64(len(dist))
}

// consistency rewards stable volatility regimes. A flat series has no
// regime to be consistent with, so it scores neutral.
func consistency(mean, std float64) float64 {
	if mean == 0 {
		return 0.5
	}
	return clamp01(1 - std/mean)
}

func (e *Engine) eventCoverage(series models.Series, events []time.Time, lookbackYears int) float64 {
	expected := e.eventsPerYear * float64(lookbackYears)
	if expected <= 0 {
		return 0
	}
	if len(series) == 0 || len(events) == 0 {
		return 0
	}
	first, last := series[0].Date, series[len(series)-1].Date
	observed := 0
	for _, ev := range events {
		if !ev.Before(first) && !ev.After(last) {
			observed++
		}
	}
	return clamp01(float64(observed) / expected)
}

// eventWindowVolatility averages rolling volatility inside a window of
// trading days around each event date.
func (e *Engine) eventWindowVolatility(obs []models.VolatilityObservation, events []time.Time) float64 {
	if len(events) == 0 || len(obs) == 0 {
		return 0
	}
	half := time.Duration(e.eventWindowDays) * 24 * time.Hour
	sum, n := 0.0, 0
	for _, o := range obs {
		for _, ev := range events {
			d := o.Date.Sub(ev)
			if d < 0 {
				d = -d
			}
			if d <= half {
				sum += o.RollingVolatility
				n++
				break
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func rationale(signal, strength string) string {
	switch signal {
	case models.SignalSellVolatility:
		if strength == models.StrengthStrong {
			return "volatility is far above its historical regime; favor selling volatility and trimming duration"
		}
		return "volatility is elevated relative to its historical regime; consider selling volatility"
	case models.SignalBuyVolatility:
		return "volatility is unusually depressed; volatility exposure is cheap relative to history"
	default:
		return "volatility sits inside its normal regime band; no action indicated"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
