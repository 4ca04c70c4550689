package api

import (
	"net/http"
	"time"

	"StratCore/internal/domain/models"
	domrepo "StratCore/internal/domain/repository"
	domsvc "StratCore/internal/domain/service"
	"StratCore/internal/service/marketcache"
	"StratCore/internal/usecase"
	xhttp "StratCore/pkg/http"
	xlogger "StratCore/pkg/logger"
	"StratCore/pkg/util"

	"github.com/labstack/echo/v4"
)

// TradingHandler exposes the read and advisory surface over HTTP: market
// state, regime, selection results, parameter validation, and the outcome
// recording entry point used when the execution loop bypasses Kafka.
type TradingHandler struct {
	logger     *xlogger.Logger
	cache      *marketcache.Cache
	classifier domsvc.RegimeClassifier
	selector   *usecase.StrategySelector
	tracker    *usecase.PerformanceTracker
	validator  *usecase.ParameterValidator
	stream     domrepo.MarketStream
}

func NewTradingHandler(
	logger *xlogger.Logger,
	cache *marketcache.Cache,
	classifier domsvc.RegimeClassifier,
	selector *usecase.StrategySelector,
	tracker *usecase.PerformanceTracker,
	validator *usecase.ParameterValidator,
	stream domrepo.MarketStream,
) *TradingHandler {
	return &TradingHandler{
		logger:     logger,
		cache:      cache,
		classifier: classifier,
		selector:   selector,
		tracker:    tracker,
		validator:  validator,
		stream:     stream,
	}
}

func (h *TradingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/market/price", h.Price)
	g.GET("/market/candles", h.Candles)
	g.GET("/regime", h.Regime)
	g.GET("/strategy/active", h.ActiveStrategy)
	g.GET("/strategy/scores", h.StrategyScores)
	g.POST("/strategy/validate", h.ValidateParams)
	g.GET("/performance", h.Performance)
	g.POST("/performance/outcome", h.RecordOutcome)
}

func (h *TradingHandler) Health(c echo.Context) error {
	status := map[string]interface{}{
		"status":           "ok",
		"stream_connected": h.stream != nil && h.stream.IsConnected(),
		"symbols_tracked":  len(h.cache.Symbols()),
	}
	return c.JSON(http.StatusOK, status)
}

func (h *TradingHandler) Price(c echo.Context) error {
	req := &models.PriceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	tick, ok := h.cache.GetPrice(req.Symbol)
	if !ok {
		return xhttp.NotFoundResponse(c, "no price for symbol")
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":       tick.Symbol,
		"price":        tick.Price,
		"change_24h":   tick.Change24h,
		"quote_volume": tick.QuoteVolume,
		"high_24h":     tick.High24h,
		"low_24h":      tick.Low24h,
		"event_time":   tick.EventTimeMs,
	})
}

func (h *TradingHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	candles := h.cache.GetCandles(req.Symbol, string(tf), req.Limit)
	if req.From != "" || req.To != "" {
		from := util.ParseTimeDefault(req.From, time.Time{})
		to := util.ParseTimeDefault(req.To, time.Now().UTC())
		from, to = util.AlignFromTo(from, to, string(tf))
		candles = clipCandleRange(candles, from, to)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=5")
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":    req.Symbol,
		"timeframe": string(tf),
		"candles":   candles,
	})
}

// clipCandleRange keeps candles whose open time falls inside [from, to].
func clipCandleRange(candles []models.Candle, from, to time.Time) []models.Candle {
	fromMs, toMs := from.UnixMilli(), to.UnixMilli()
	out := make([]models.Candle, 0, len(candles))
	for _, cd := range candles {
		if cd.TimestampMs >= fromMs && cd.TimestampMs <= toMs {
			out = append(out, cd)
		}
	}
	return out
}

func (h *TradingHandler) Regime(c echo.Context) error {
	snap := h.classifier.Classify()
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"regime":      string(snap.Regime),
		"btc_trend":   string(snap.BTCTrend),
		"computed_at": snap.ComputedAt.Format(time.RFC3339),
	})
}

func (h *TradingHandler) ActiveStrategy(c echo.Context) error {
	req := &models.ActiveStrategyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rec, err := h.selector.ActiveStrategy(c.Request().Context(), req.UserID)
	if err != nil {
		h.logger.Error("active strategy lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if rec == nil {
		return xhttp.NotFoundResponse(c, "no selection recorded yet")
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *TradingHandler) StrategyScores(c echo.Context) error {
	req := &models.StrategyScoresRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snap := h.classifier.Classify()
	scores, err := h.selector.ScoreAll(c.Request().Context(), snap)
	if err != nil {
		h.logger.Error("scoring failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"regime":    string(snap.Regime),
		"btc_trend": string(snap.BTCTrend),
		"scores":    scores,
	})
}

func (h *TradingHandler) ValidateParams(c echo.Context) error {
	req := &models.ValidateParamsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report := h.validator.Validate(req.Family, req.Symbol, req.TF, req.Params)
	return xhttp.SuccessResponse(c, report)
}

func (h *TradingHandler) Performance(c echo.Context) error {
	req := &models.PerformanceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	perf, err := h.tracker.GetStrategyPerformance(c.Request().Context(), req.UserID, req.StrategyID, req.Limit)
	if err != nil {
		h.logger.Error("performance lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"strategy_id":  perf.StrategyID,
		"win_rate":     perf.WinRate,
		"total_trades": perf.TotalTrades,
		"avg_pnl_pct":  perf.AvgPnlPct,
	})
}

func (h *TradingHandler) RecordOutcome(c echo.Context) error {
	req := &models.RecordOutcomeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	outcome := &models.TradeOutcome{
		UserID:     req.UserID,
		StrategyID: req.StrategyID,
		Symbol:     req.Symbol,
		Regime:     models.Regime(req.Regime),
		Result:     models.TradeResult(req.Result),
		PnlPct:     req.PnlPct,
	}
	if err := h.tracker.RecordTradeResult(c.Request().Context(), outcome); err != nil {
		h.logger.Error("outcome record failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]interface{}{
		"recorded": true,
	})
}
