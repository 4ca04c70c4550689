package usecase

import (
	"context"
	"time"

	drepo "StratCore/internal/domain/repository"
	"StratCore/internal/service/marketcache"
	"StratCore/internal/service/ratelimit"
	applogger "StratCore/pkg/logger"
)

const (
	// DefaultBackfillLimit is the candle count fetched per (symbol, timeframe).
	DefaultBackfillLimit = 500

	// DefaultInterBatchDelay spaces REST calls so startup never bursts the
	// exchange rate limit.
	DefaultInterBatchDelay = 250 * time.Millisecond

	restLimiterKey      = "exchange_rest"
	restBurstCapacity   = 5
	restRefillPerSecond = 2
)

// HistoricalBackfill warms the market cache at startup: durable candle
// storage first, then the exchange REST API for whatever is still missing.
// A failed (symbol, timeframe) pair is logged and skipped; the stream will
// fill the gap organically.
type HistoricalBackfill struct {
	cache   *marketcache.Cache
	history drepo.CandleHistory
	store   drepo.CandleStore
	limiter *ratelimit.Limiter
	metrics drepo.Metrics
	logger  *applogger.Logger

	symbols    []string
	timeframes []drepo.Timeframe
	limit      int
	delay      time.Duration
}

func NewHistoricalBackfill(
	cache *marketcache.Cache,
	history drepo.CandleHistory,
	store drepo.CandleStore,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	symbols []string,
	timeframes []drepo.Timeframe,
	limit int,
	delay time.Duration,
) *HistoricalBackfill {
	if limit <= 0 {
		limit = DefaultBackfillLimit
	}
	if delay <= 0 {
		delay = DefaultInterBatchDelay
	}
	return &HistoricalBackfill{
		cache:      cache,
		history:    history,
		store:      store,
		limiter:    ratelimit.New(),
		metrics:    metrics,
		logger:     logger,
		symbols:    symbols,
		timeframes: timeframes,
		limit:      limit,
		delay:      delay,
	}
}

// Run backfills every configured (symbol, timeframe) pair. It returns early
// only on context cancellation; per-pair failures degrade to an empty ring.
func (b *HistoricalBackfill) Run(ctx context.Context) error {
	started := time.Now()
	pairs := 0
	for _, symbol := range b.symbols {
		for _, tf := range b.timeframes {
			if err := ctx.Err(); err != nil {
				return err
			}
			b.backfillPair(ctx, symbol, tf)
			pairs++
			if err := sleepCtx(ctx, b.delay); err != nil {
				return err
			}
		}
	}
	b.logger.Info("historical backfill finished",
		applogger.Int("pairs", pairs),
		applogger.Duration("took", time.Since(started)))
	return nil
}

func (b *HistoricalBackfill) backfillPair(ctx context.Context, symbol string, tf drepo.Timeframe) {
	warmed := 0
	if b.store != nil {
		stored, err := b.store.Recent(ctx, symbol, string(tf), b.limit)
		if err != nil {
			b.logger.Warn("candle store warm-up failed",
				applogger.String("symbol", symbol),
				applogger.String("timeframe", string(tf)),
				applogger.Error(err))
		} else {
			warmed = b.cache.AddCandles(symbol, string(tf), stored)
		}
	}

	if b.cache.CandleCount(symbol, string(tf)) >= b.limit {
		b.logger.Debug("ring warm from storage",
			applogger.String("symbol", symbol),
			applogger.String("timeframe", string(tf)),
			applogger.Int("candles", warmed))
		return
	}

	if err := b.waitForToken(ctx); err != nil {
		return
	}
	start := time.Now()
	fetched, err := b.history.FetchCandles(ctx, symbol, string(tf), b.limit)
	if err != nil {
		b.metrics.RecordError("backfill_fetch")
		b.logger.Warn("historical fetch failed",
			applogger.String("symbol", symbol),
			applogger.String("timeframe", string(tf)),
			applogger.Error(err))
		return
	}
	b.metrics.RecordLatency("backfill_fetch", time.Since(start).Seconds())

	accepted := b.cache.AddCandles(symbol, string(tf), fetched)
	if b.store != nil && len(fetched) > 0 {
		if err := b.store.AppendBatch(ctx, symbol, string(tf), fetched); err != nil {
			b.metrics.RecordError("backfill_persist")
			b.logger.Warn("candle persist failed",
				applogger.String("symbol", symbol),
				applogger.String("timeframe", string(tf)),
				applogger.Error(err))
		}
	}
	b.logger.Info("backfilled pair",
		applogger.String("symbol", symbol),
		applogger.String("timeframe", string(tf)),
		applogger.Int("fetched", len(fetched)),
		applogger.Int("accepted", accepted))
}

// waitForToken blocks until the REST token bucket grants a call.
func (b *HistoricalBackfill) waitForToken(ctx context.Context) error {
	for !b.limiter.Allow(restLimiterKey, restBurstCapacity, restRefillPerSecond) {
		if err := sleepCtx(ctx, 100*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
