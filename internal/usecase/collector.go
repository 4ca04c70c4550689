package usecase

import (
	"context"

	"StratCore/internal/domain/models"
	drepo "StratCore/internal/domain/repository"
	"StratCore/internal/service/marketcache"
	applogger "StratCore/pkg/logger"
)

// MarketCollector is the stream event sink: ticks update the price table,
// final candles land in the ring and the async writer. Work here stays O(1)
// per event; classification, scoring, and side-channel fan-out (see
// TickMirrorObserver) run elsewhere.
type MarketCollector struct {
	cache   *marketcache.Cache
	writer  *CandleWriter
	metrics drepo.Metrics
	logger  *applogger.Logger
}

func NewMarketCollector(cache *marketcache.Cache, writer *CandleWriter, metrics drepo.Metrics, logger *applogger.Logger) *MarketCollector {
	return &MarketCollector{
		cache:   cache,
		writer:  writer,
		metrics: metrics,
		logger:  logger,
	}
}

// HandleEvent implements repository.EventHandler.
func (c *MarketCollector) HandleEvent(ctx context.Context, ev *models.StreamEvent) {
	if ev == nil {
		return
	}
	switch ev.Kind {
	case models.EventTick:
		c.handleTick(ev.Tick)
	case models.EventTickBatch:
		c.cache.SetPrices(ev.Ticks)
		for i := range ev.Ticks {
			c.metrics.RecordLastPrice(ev.Ticks[i].Symbol, ev.Ticks[i].Price)
		}
	case models.EventCandle:
		c.handleCandle(ev)
	}
}

func (c *MarketCollector) handleTick(t *models.PriceTick) {
	if t == nil {
		return
	}
	c.cache.SetPrice(*t)
	c.metrics.RecordLastPrice(t.Symbol, t.Price)
}

func (c *MarketCollector) handleCandle(ev *models.StreamEvent) {
	if ev.Candle == nil {
		return
	}
	// Provisional updates are noise for the ring; only the closing bar of
	// an interval is durable.
	if !ev.IsFinal {
		return
	}
	if !c.cache.AddCandle(ev.Symbol, ev.Timeframe, *ev.Candle) {
		c.logger.Debug("stale candle rejected",
			applogger.String("symbol", ev.Symbol),
			applogger.String("timeframe", ev.Timeframe),
			applogger.Int64("ts", ev.Candle.TimestampMs))
		return
	}
	if c.writer != nil {
		c.writer.Enqueue(ev.Symbol, ev.Timeframe, *ev.Candle)
	}
}
