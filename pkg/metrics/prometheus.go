package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheLookups *prometheus.CounterVec
	analysisRuns *prometheus.CounterVec
	simulations  *prometheus.CounterVec
	alertsSent   *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	currentVol   *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldscope_cache_lookups_total",
				Help: "Cache lookups partitioned by outcome",
			},
			[]string{"outcome"},
		),
		analysisRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldscope_analysis_runs_total",
				Help: "Volatility analyses partitioned by resulting signal",
			},
			[]string{"signal"},
		),
		simulations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldscope_simulations_total",
				Help: "Monte Carlo simulations partitioned by regime",
			},
			[]string{"regime"},
		),
		alertsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldscope_alerts_sent_total",
				Help: "Alerts delivered to a sink",
			},
			[]string{"sink", "signal"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldscope_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		currentVol: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "yieldscope_current_volatility",
				Help: "Last computed annualized volatility per series",
			},
			[]string{"series"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yieldscope_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCacheLookup records a cache lookup outcome (hit, miss, promotion).
func (r *Recorder) RecordCacheLookup(outcome string) {
	r.cacheLookups.WithLabelValues(outcome).Inc()
}

// RecordAnalysis records a completed volatility analysis.
func (r *Recorder) RecordAnalysis(signal string) {
	r.analysisRuns.WithLabelValues(signal).Inc()
}

// RecordSimulation records a completed Monte Carlo run.
func (r *Recorder) RecordSimulation(regime string) {
	r.simulations.WithLabelValues(regime).Inc()
}

// RecordAlertSent records an alert delivered to a sink.
func (r *Recorder) RecordAlertSent(sink, signal string) {
	r.alertsSent.WithLabelValues(sink, signal).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordVolatility records the latest annualized volatility for a series.
func (r *Recorder) RecordVolatility(series string, vol float64) {
	r.currentVol.WithLabelValues(series).Set(vol)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
