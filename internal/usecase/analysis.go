package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"YieldScope/internal/domain/models"
	domrepo "YieldScope/internal/domain/repository"
	"YieldScope/internal/services/volatility"
	"YieldScope/pkg/cache"
	applogger "YieldScope/pkg/logger"
	"YieldScope/pkg/util"
)

// ErrDataUnavailable signals that the upstream provider had no history for
// the requested instrument.
var ErrDataUnavailable = errors.New("no upstream history for instrument")

const seriesIntent = "series"

// Analysis runs cache-mediated volatility and baseline computations and
// forwards actionable alerts to the configured sinks.
type Analysis struct {
	store    *cache.MemoryStore
	provider domrepo.SeriesProvider
	engine   *volatility.Engine
	sinks    []domrepo.AlertSink
	metrics  domrepo.Metrics
	l        *applogger.Logger

	seriesTTLMinutes int
	alertTimeout     time.Duration
}

type AnalysisOption func(*Analysis)

// WithSeriesTTL sets the cache TTL for fetched series, in minutes.
func WithSeriesTTL(minutes int) AnalysisOption {
	return func(a *Analysis) {
		if minutes > 0 {
			a.seriesTTLMinutes = minutes
		}
	}
}

// WithAlertSinks registers delivery targets for actionable signals.
func WithAlertSinks(sinks ...domrepo.AlertSink) AnalysisOption {
	return func(a *Analysis) {
		a.sinks = append(a.sinks, sinks...)
	}
}

// WithAlertTimeout bounds each sink delivery.
func WithAlertTimeout(d time.Duration) AnalysisOption {
	return func(a *Analysis) {
		if d > 0 {
			a.alertTimeout = d
		}
	}
}

func NewAnalysis(store *cache.MemoryStore, provider domrepo.SeriesProvider, engine *volatility.Engine, metrics domrepo.Metrics, l *applogger.Logger, opts ...AnalysisOption) *Analysis {
	a := &Analysis{
		store:            store,
		provider:         provider,
		engine:           engine,
		metrics:          metrics,
		l:                l,
		seriesTTLMinutes: 60,
		alertTimeout:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Volatility analyzes the instrument's yield series. Missing or too-short
// history comes back as a no_data result, not an error.
func (a *Analysis) Volatility(ctx context.Context, req *models.VolatilityRequest) (*models.RegimeSignal, error) {
	start := time.Now()
	series, err := a.loadSeries(ctx, req.Instrument, req.Lookback)
	if err != nil {
		if errors.Is(err, ErrDataUnavailable) {
			a.metrics.RecordError("data_unavailable")
			return &models.RegimeSignal{Status: models.StatusNoData, InstrumentID: req.Instrument}, nil
		}
		return nil, err
	}

	events, err := parseDates(req.EventDates)
	if err != nil {
		return nil, err
	}

	sig, err := a.engine.Analyze(series, volatility.Params{
		WindowDays:    req.WindowDays,
		LookbackYears: req.Lookback,
		EventDates:    events,
	})
	if err != nil {
		if errors.Is(err, volatility.ErrInsufficientData) {
			a.metrics.RecordError("insufficient_data")
			return sig, nil
		}
		return nil, err
	}

	a.metrics.RecordAnalysis(sig.Signal)
	a.metrics.RecordVolatility(req.Instrument, sig.CurrentVolatility)
	a.metrics.RecordLatency("volatility_analyze", time.Since(start).Seconds())

	if sig.RecommendationStatus == models.StatusActionable && sig.Signal != models.SignalHold {
		a.emitAlert(sig)
	}
	return sig, nil
}

// Baseline summarizes the instrument's series without a recommendation.
func (a *Analysis) Baseline(ctx context.Context, req *models.BaselineRequest) (*models.BaselineMetrics, error) {
	series, err := a.loadSeries(ctx, req.Instrument, req.Lookback)
	if err != nil {
		if errors.Is(err, ErrDataUnavailable) {
			return &models.BaselineMetrics{Status: models.StatusNoData, InstrumentID: req.Instrument}, nil
		}
		return nil, err
	}
	return volatility.Baseline(series), nil
}

// loadSeries serves the series from cache or fetches and caches it.
func (a *Analysis) loadSeries(ctx context.Context, instrument string, lookbackYears int) (models.Series, error) {
	q := cache.NewQuery(seriesIntent, map[string]string{
		"instrument": instrument,
		"lookback":   strconv.Itoa(lookbackYears),
	})

	if payload, hit, age := a.store.Get(q); hit {
		a.metrics.RecordCacheLookup("hit")
		var series models.Series
		if err := json.Unmarshal(payload, &series); err == nil {
			return series, nil
		}
		// unreadable payload, drop it and refetch
		a.l.Warn("cached series payload unreadable, refetching",
			applogger.String("instrument", instrument),
			applogger.Float64("age_minutes", age),
		)
		a.store.Invalidate(ctx, q.Key())
	} else {
		a.metrics.RecordCacheLookup("miss")
	}

	to := time.Now().UTC()
	from, to := util.AlignDateRange(to.AddDate(-lookbackYears, 0, 0), to)
	series, err := a.provider.FetchSeries(ctx, instrument, from, to)
	if err != nil {
		a.metrics.RecordError("provider_fetch")
		return nil, fmt.Errorf("fetch %s: %w", instrument, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, instrument)
	}

	payload, err := json.Marshal(series)
	if err != nil {
		return nil, fmt.Errorf("encode series: %w", err)
	}
	a.store.Put(q, payload, a.seriesTTLMinutes)
	return series, nil
}

// emitAlert delivers to every sink; failures are logged and absorbed.
func (a *Analysis) emitAlert(sig *models.RegimeSignal) {
	alert := &models.Alert{
		InstrumentID:      sig.InstrumentID,
		Signal:            sig.Signal,
		Strength:          sig.Strength,
		Confidence:        sig.Confidence,
		CurrentVolatility: sig.CurrentVolatility,
		Percentile:        sig.Percentile,
		Rationale:         sig.Rationale,
		GeneratedAt:       time.Now().UTC(),
	}
	for _, sink := range a.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), a.alertTimeout)
		err := sink.Deliver(ctx, alert)
		cancel()
		if err != nil {
			a.metrics.RecordError("alert_" + sink.Name())
			a.l.Warn("alert delivery failed",
				applogger.String("sink", sink.Name()),
				applogger.String("instrument", alert.InstrumentID),
				applogger.Error(err),
			)
			continue
		}
		a.metrics.RecordAlertSent(sink.Name(), alert.Signal)
	}
}

func parseDates(raw []string) ([]time.Time, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("bad event date %q: %w", s, err)
		}
		out = append(out, d)
	}
	return out, nil
}
