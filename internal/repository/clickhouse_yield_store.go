package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"YieldScope/internal/domain/models"
	pkgch "YieldScope/pkg/clickhouse"
	applogger "YieldScope/pkg/logger"
)

// CHYieldStore implements SeriesProvider backed by ClickHouse.
type CHYieldStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHYieldStore(ch *pkgch.Client) *CHYieldStore {
	return &CHYieldStore{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHYieldStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHYieldStore) FetchSeries(ctx context.Context, instrumentID string, from, to time.Time) (models.Series, error) {
	start := time.Now()
	const q = `
        SELECT obs_date, instrument_id, value
        FROM yieldscope.yield_history
        WHERE instrument_id = ? AND obs_date >= ? AND obs_date <= ?
        ORDER BY obs_date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, instrumentID, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse fetch_series query error",
				applogger.String("instrument", instrumentID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("fetch series: %w", err)
	}
	defer rows.Close()

	out := make(models.Series, 0, 1024)
	for rows.Next() {
		var p models.TimeSeriesPoint
		if err := rows.Scan(&p.Date, &p.InstrumentID, &p.Value); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse fetch_series scan error",
					applogger.String("instrument", instrumentID),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan point: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse fetch_series rows error",
				applogger.String("instrument", instrumentID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse fetch_series ok",
			applogger.String("instrument", instrumentID),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	// upstream occasionally re-states an observation for the same date
	return out.Dedupe(), nil
}

func (s *CHYieldStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHYieldStore) Close() error {
	return s.ch.Close()
}
