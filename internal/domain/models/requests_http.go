package models

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type VolatilityRequest struct {
	Instrument string   `query:"instrument" json:"instrument" validate:"required"`
	WindowDays int      `query:"window_days" json:"window_days" default:"30" validate:"gte=5,lte=120"`
	Lookback   int      `query:"lookback_years" json:"lookback_years" default:"2" validate:"gte=1,lte=10"`
	EventDates []string `query:"event_dates" json:"event_dates" validate:"omitempty,dive,datetime=2006-01-02"`
}

type SimulateRequest struct {
	ForecastedYields map[string]float64 `json:"forecasted_yields" validate:"required,min=1"`
	RegimeHint       string             `json:"regime_hint" default:"normal" validate:"oneof=calm normal stress"`
	ConfidenceScore  *float64           `json:"confidence_score" validate:"omitempty,gte=0,lte=1"`
	Seed             *uint64            `json:"seed"`
}

type BaselineRequest struct {
	Instrument string `query:"instrument" json:"instrument" validate:"required"`
	Lookback   int    `query:"lookback_years" json:"lookback_years" default:"1" validate:"gte=1,lte=10"`
}

type InvalidateRequest struct {
	KeyOrPrefix string `json:"key_or_prefix" validate:"required"`
}
