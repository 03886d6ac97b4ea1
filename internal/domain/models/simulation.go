package models

// Regime hints scale simulation variance.
const (
	RegimeCalm   = "calm"
	RegimeNormal = "normal"
	RegimeStress = "stress"
)

// RegimeMultipliers maps a regime hint to its sigma multiplier.
var RegimeMultipliers = map[string]float64{
	RegimeCalm:   0.7,
	RegimeNormal: 1.0,
	RegimeStress: 1.8,
}

// Tenors supported by the simulator.
const (
	Tenor13W = "13W"
	Tenor5Y  = "5Y"
	Tenor10Y = "10Y"
	Tenor30Y = "30Y"
)

// IsValidTenor returns true if t is a supported maturity bucket.
func IsValidTenor(t string) bool {
	switch t {
	case Tenor13W, Tenor5Y, Tenor10Y, Tenor30Y:
		return true
	default:
		return false
	}
}

// SimulationRequest asks for downside-risk metrics around forecasted yields.
type SimulationRequest struct {
	ForecastedYields map[string]float64 `json:"forecasted_yields"`
	RegimeHint       string             `json:"regime_hint"`
	ConfidenceScore  *float64           `json:"confidence_score,omitempty"`
}

// TenorResult holds the simulated risk metrics for a single tenor. Error is
// set instead of metrics when the tenor input was invalid or lacked history.
type TenorResult struct {
	VaR95Bps      float64    `json:"var_95_bps"`
	YieldRangeBps [2]float64 `json:"yield_range_bps"`
	SimCount      int        `json:"sim_count"`
	Sigma         float64    `json:"sigma,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// Interpretation is qualitative guidance derived from the regime hint alone,
// never recomputed from simulation output.
type Interpretation struct {
	RiskLevel string `json:"risk_level"`
	Guidance  string `json:"guidance"`
}

type SimulationResult struct {
	Regime         string                 `json:"regime"`
	PerTenor       map[string]TenorResult `json:"per_tenor"`
	Interpretation Interpretation         `json:"interpretation"`
}
