package usecase

import (
	"context"
	"errors"
	"time"

	"YieldScope/internal/domain/models"
	domrepo "YieldScope/internal/domain/repository"
	"YieldScope/internal/services/simulation"
	applogger "YieldScope/pkg/logger"
)

// tenorInstruments maps maturity buckets to their upstream series IDs.
var tenorInstruments = map[string]string{
	models.Tenor13W: "UST13W",
	models.Tenor5Y:  "UST5Y",
	models.Tenor10Y: "UST10Y",
	models.Tenor30Y: "UST30Y",
}

// Simulate calibrates per-tenor sigmas from cached history and runs the
// Monte Carlo simulator.
type Simulate struct {
	analysis *Analysis
	metrics  domrepo.Metrics
	l        *applogger.Logger

	simCount      int
	workers       int
	lookbackYears int
}

type SimulateOption func(*Simulate)

// WithSimCount overrides the draw count per tenor.
func WithSimCount(n int) SimulateOption {
	return func(s *Simulate) {
		if n > 0 {
			s.simCount = n
		}
	}
}

// WithSimWorkers bounds per-tenor parallelism.
func WithSimWorkers(n int) SimulateOption {
	return func(s *Simulate) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithCalibrationLookback sets the history depth for sigma calibration.
func WithCalibrationLookback(years int) SimulateOption {
	return func(s *Simulate) {
		if years > 0 {
			s.lookbackYears = years
		}
	}
}

func NewSimulate(analysis *Analysis, metrics domrepo.Metrics, l *applogger.Logger, opts ...SimulateOption) *Simulate {
	s := &Simulate{
		analysis:      analysis,
		metrics:       metrics,
		l:             l,
		simCount:      simulation.DefaultSimCount,
		lookbackYears: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the simulation for the request. Tenors whose history cannot
// be loaded get an inline error entry; the rest simulate normally.
func (s *Simulate) Run(ctx context.Context, req *models.SimulateRequest) (*models.SimulationResult, error) {
	start := time.Now()

	sigmas := make(map[string]float64, len(req.ForecastedYields))
	for tenor := range req.ForecastedYields {
		instrument, ok := tenorInstruments[tenor]
		if !ok {
			// the simulator reports the unknown tenor inline
			continue
		}
		series, err := s.analysis.loadSeries(ctx, instrument, s.lookbackYears)
		if err != nil {
			if errors.Is(err, ErrDataUnavailable) {
				s.l.Warn("no calibration history for tenor",
					applogger.String("tenor", tenor),
					applogger.String("instrument", instrument),
				)
				continue
			}
			return nil, err
		}
		sigmas[tenor] = simulation.HistoricalSigma(series)
	}

	opts := []simulation.Option{simulation.WithSimCount(s.simCount)}
	if s.workers > 0 {
		opts = append(opts, simulation.WithWorkers(s.workers))
	}
	if req.Seed != nil {
		opts = append(opts, simulation.WithSeed(*req.Seed))
	}
	sim := simulation.NewSimulator(opts...)

	res, err := sim.Simulate(ctx, &models.SimulationRequest{
		ForecastedYields: req.ForecastedYields,
		RegimeHint:       req.RegimeHint,
		ConfidenceScore:  req.ConfidenceScore,
	}, sigmas)
	if err != nil {
		s.metrics.RecordError("simulate")
		return nil, err
	}

	s.metrics.RecordSimulation(req.RegimeHint)
	s.metrics.RecordLatency("simulate", time.Since(start).Seconds())
	return res, nil
}
