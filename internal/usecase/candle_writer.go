package usecase

import (
	"context"
	"sync"
	"time"

	"StratCore/internal/domain/models"
	drepo "StratCore/internal/domain/repository"
	applogger "StratCore/pkg/logger"
)

const (
	// DefaultCandleBatchSize flushes once this many final candles are queued.
	DefaultCandleBatchSize = 64

	// DefaultCandleFlushInterval bounds how long a partial batch can sit.
	DefaultCandleFlushInterval = 5 * time.Second

	candleQueueDepth = 1024
)

type pendingCandle struct {
	symbol    string
	timeframe string
	candle    models.Candle
}

// CandleWriter batches final candles off the stream hot path and persists
// them asynchronously, so a slow durable store never backpressures the
// websocket read loop.
type CandleWriter struct {
	store   drepo.CandleStore
	metrics drepo.Metrics
	logger  *applogger.Logger

	batchSize     int
	flushInterval time.Duration

	ch      chan pendingCandle
	stopCh  chan struct{}
	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

func NewCandleWriter(store drepo.CandleStore, metrics drepo.Metrics, logger *applogger.Logger, batchSize int, flushInterval time.Duration) *CandleWriter {
	if batchSize <= 0 {
		batchSize = DefaultCandleBatchSize
	}
	if flushInterval <= 0 {
		flushInterval = DefaultCandleFlushInterval
	}
	return &CandleWriter{
		store:         store,
		metrics:       metrics,
		logger:        logger,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		ch:            make(chan pendingCandle, candleQueueDepth),
		stopCh:        make(chan struct{}),
	}
}

// Start launches the background flush loop.
func (w *CandleWriter) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)
}

// Stop drains the queue and flushes the final batch.
func (w *CandleWriter) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.mu.Unlock()
	close(w.stopCh)
	w.wg.Wait()
}

// Enqueue queues a final candle without blocking. A full queue drops the
// candle; the ring in memory still has it and backfill can recover the gap.
func (w *CandleWriter) Enqueue(symbol, timeframe string, c models.Candle) {
	select {
	case w.ch <- pendingCandle{symbol: symbol, timeframe: timeframe, candle: c}:
	default:
		w.metrics.RecordError("candle_queue_full")
	}
}

func (w *CandleWriter) run(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	batch := make([]pendingCandle, 0, w.batchSize)
	for {
		select {
		case <-w.stopCh:
			w.drain(&batch)
			w.flush(context.Background(), &batch)
			return
		case <-ctx.Done():
			w.drain(&batch)
			w.flush(context.Background(), &batch)
			return
		case pc := <-w.ch:
			batch = append(batch, pc)
			if len(batch) >= w.batchSize {
				w.flush(ctx, &batch)
			}
		case <-ticker.C:
			w.flush(ctx, &batch)
		}
	}
}

func (w *CandleWriter) drain(batch *[]pendingCandle) {
	for {
		select {
		case pc := <-w.ch:
			*batch = append(*batch, pc)
		default:
			return
		}
	}
}

// flush groups the batch per (symbol, timeframe) and writes each group in
// one AppendBatch call. Failures are logged and the group dropped; candle
// persistence is a warm-start optimization, not an audit log.
func (w *CandleWriter) flush(ctx context.Context, batch *[]pendingCandle) {
	if len(*batch) == 0 {
		return
	}
	type groupKey struct{ symbol, timeframe string }
	groups := make(map[groupKey][]models.Candle)
	order := make([]groupKey, 0)
	for _, pc := range *batch {
		k := groupKey{pc.symbol, pc.timeframe}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], pc.candle)
	}

	start := time.Now()
	for _, k := range order {
		if err := w.store.AppendBatch(ctx, k.symbol, k.timeframe, groups[k]); err != nil {
			w.metrics.RecordError("candle_flush")
			w.logger.Warn("candle batch write failed",
				applogger.String("symbol", k.symbol),
				applogger.String("timeframe", k.timeframe),
				applogger.Int("candles", len(groups[k])),
				applogger.Error(err))
		}
	}
	w.metrics.RecordLatency("candle_flush", time.Since(start).Seconds())
	*batch = (*batch)[:0]
}
