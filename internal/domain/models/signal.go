package models

import "time"

// Signal classifications produced by the volatility engine.
const (
	SignalSellVolatility = "SELL_VOLATILITY"
	SignalBuyVolatility  = "BUY_VOLATILITY"
	SignalHold           = "HOLD"

	StrengthStrong   = "STRONG"
	StrengthModerate = "MODERATE"
	StrengthNeutral  = "NEUTRAL"

	StatusActionable  = "ACTIONABLE"
	StatusMonitorOnly = "MONITOR_ONLY"
	StatusNoData      = "no_data"
	StatusOK          = "ok"
)

type VolatilityObservation struct {
	Date              time.Time `json:"date"`
	RollingVolatility float64   `json:"rolling_volatility"`
}

type ConfidenceBreakdown struct {
	DataCompleteness      float64 `json:"data_completeness"`
	EventCoverage         float64 `json:"event_coverage"`
	VolatilityConsistency float64 `json:"volatility_consistency"`
}

// RegimeSignal is a computed view over a yield series. It is created fresh
// per request and never persisted as authoritative state.
type RegimeSignal struct {
	Status               string              `json:"status"`
	InstrumentID         string              `json:"instrument_id,omitempty"`
	CurrentVolatility    float64             `json:"current_volatility"`
	MeanVolatility       float64             `json:"mean_volatility"`
	StdVolatility        float64             `json:"std_volatility"`
	Percentile           float64             `json:"percentile"`
	HighThreshold        float64             `json:"high_threshold"`
	LowThreshold         float64             `json:"low_threshold"`
	Signal               string              `json:"signal"`
	Strength             string              `json:"strength"`
	Confidence           float64             `json:"confidence"`
	ConfidenceBreakdown  ConfidenceBreakdown `json:"confidence_breakdown"`
	RecommendationStatus string              `json:"recommendation_status"`
	Rationale            string              `json:"rationale,omitempty"`
	AvgEventVolatility   float64             `json:"avg_event_volatility,omitempty"`
	Observations         int                 `json:"observations"`
	AsOf                 time.Time           `json:"as_of"`
}

// BaselineMetrics summarizes a series without making a recommendation.
type BaselineMetrics struct {
	Status       string    `json:"status"`
	InstrumentID string    `json:"instrument_id"`
	LatestValue  float64   `json:"latest_value"`
	LatestDate   time.Time `json:"latest_date"`
	Vol1D        float64   `json:"vol_1d"`
	Vol5D        float64   `json:"vol_5d"`
	Vol30D       float64   `json:"vol_30d"`
	MA5          float64   `json:"ma_5"`
	MA20         float64   `json:"ma_20"`
	SampleCount  int       `json:"sample_count"`
}
