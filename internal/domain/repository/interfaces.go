package repository

import (
	"context"
	"time"

	"YieldScope/internal/domain/models"
)

// SeriesProvider is the upstream source of truth for yield history.
type SeriesProvider interface {
	FetchSeries(ctx context.Context, instrumentID string, from, to time.Time) (models.Series, error)
	Health(ctx context.Context) error
	Close() error
}

// AlertSink delivers structured alerts to an external destination.
// Delivery failures are logged by callers, never fatal.
type AlertSink interface {
	Deliver(ctx context.Context, a *models.Alert) error
	Name() string
	Close() error
}

type Metrics interface {
	RecordCacheLookup(outcome string)
	RecordAnalysis(signal string)
	RecordSimulation(regime string)
	RecordAlertSent(sink, signal string)
	RecordError(kind string)
	RecordVolatility(series string, vol float64)
	RecordLatency(op string, seconds float64)
}
