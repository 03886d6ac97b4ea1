package models

import "time"

// Alert is the structured payload forwarded to notification sinks when an
// actionable non-HOLD signal is produced.
type Alert struct {
	InstrumentID      string    `json:"instrument_id"`
	Signal            string    `json:"signal"`
	Strength          string    `json:"strength"`
	Confidence        float64   `json:"confidence"`
	CurrentVolatility float64   `json:"current_volatility"`
	Percentile        float64   `json:"percentile"`
	Rationale         string    `json:"rationale"`
	GeneratedAt       time.Time `json:"generated_at"`
}
