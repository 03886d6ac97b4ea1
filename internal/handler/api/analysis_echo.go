package api

import (
	"time"

	models "YieldScope/internal/domain/models"
	"YieldScope/internal/service/metrics"
	"YieldScope/internal/service/ratelimit"
	"YieldScope/internal/usecase"
	"YieldScope/pkg/cache"
	xhttp "YieldScope/pkg/http"
	xlogger "YieldScope/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisHandler exposes the analysis and simulation use cases over Echo.
type AnalysisHandler struct {
	logger   *xlogger.Logger
	analysis *usecase.Analysis
	simulate *usecase.Simulate
	store    *cache.MemoryStore
	rl       *ratelimit.Limiter
}

func NewAnalysisHandler(logger *xlogger.Logger, analysis *usecase.Analysis, simulate *usecase.Simulate, store *cache.MemoryStore) *AnalysisHandler {
	metrics.Register()
	return &AnalysisHandler{
		logger:   logger,
		analysis: analysis,
		simulate: simulate,
		store:    store,
		rl:       ratelimit.New(),
	}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/volatility", h.Volatility)
	g.POST("/simulate", h.Simulate)
	g.GET("/baseline", h.Baseline)
	g.GET("/cache/stats", h.CacheStats)
	g.POST("/cache/invalidate", h.Invalidate)
}

func (h *AnalysisHandler) Volatility(c echo.Context) error {
	start := time.Now()
	endpoint := "volatility"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if !h.rl.Allow(c.RealIP()+":volatility", 10, 5) {
		return rateLimited(c)
	}
	req := &models.VolatilityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analysis.Volatility(c.Request().Context(), req)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("volatility usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("volatility analysis failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Simulate(c echo.Context) error {
	start := time.Now()
	endpoint := "simulate"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if !h.rl.Allow(c.RealIP()+":simulate", 5, 2) {
		return rateLimited(c)
	}
	req := &models.SimulateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.simulate.Run(c.Request().Context(), req)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("simulate usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("simulation failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Baseline(c echo.Context) error {
	start := time.Now()
	endpoint := "baseline"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if !h.rl.Allow(c.RealIP()+":baseline", 10, 5) {
		return rateLimited(c)
	}
	req := &models.BaselineRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analysis.Baseline(c.Request().Context(), req)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("baseline usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("baseline computation failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) CacheStats(c echo.Context) error {
	stats := h.store.Stats()
	dirty, pending := h.store.Dirty()
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"entries":                h.store.Len(),
		"dirty":                  dirty,
		"operations_since_flush": pending,
		"counters":               stats,
	})
}

func (h *AnalysisHandler) Invalidate(c echo.Context) error {
	req := &models.InvalidateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	removed := h.store.Invalidate(c.Request().Context(), req.KeyOrPrefix)
	h.logger.Info("cache invalidated via api",
		xlogger.String("key_or_prefix", req.KeyOrPrefix),
		xlogger.Int("removed", removed),
	)
	return xhttp.SuccessResponse(c, map[string]int{"removed": removed})
}

func rateLimited(c echo.Context) error {
	return xhttp.DataResponse(c, 429, "rate limited")
}
