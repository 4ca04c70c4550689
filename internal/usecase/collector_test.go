package usecase

import (
	"context"
	"testing"
	"time"

	"StratCore/internal/domain/models"
	"StratCore/internal/service/marketcache"
)

type fakeCandleStore struct {
	batches map[string][]models.Candle
}

func (f *fakeCandleStore) AppendBatch(_ context.Context, symbol, timeframe string, candles []models.Candle) error {
	if f.batches == nil {
		f.batches = make(map[string][]models.Candle)
	}
	key := symbol + "/" + timeframe
	f.batches[key] = append(f.batches[key], candles...)
	return nil
}

func (f *fakeCandleStore) Recent(_ context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	return nil, nil
}

func TestCollectorTickUpdatesCache(t *testing.T) {
	cache := marketcache.New(0)
	col := NewMarketCollector(cache, nil, nopMetrics{}, testLogger(t))

	col.HandleEvent(context.Background(), &models.StreamEvent{
		Kind: models.EventTick,
		Tick: &models.PriceTick{Symbol: "BTCUSDT", Price: 42000},
	})

	got, ok := cache.GetPrice("BTCUSDT")
	if !ok || got.Price != 42000 {
		t.Fatalf("cache tick = %+v, ok=%v", got, ok)
	}
}

func TestCollectorIgnoresProvisionalCandles(t *testing.T) {
	cache := marketcache.New(0)
	col := NewMarketCollector(cache, nil, nopMetrics{}, testLogger(t))

	col.HandleEvent(context.Background(), &models.StreamEvent{
		Kind:      models.EventCandle,
		Symbol:    "BTCUSDT",
		Timeframe: "15m",
		IsFinal:   false,
		Candle:    &models.Candle{TimestampMs: 1000, Close: 1},
	})

	if n := cache.CandleCount("BTCUSDT", "15m"); n != 0 {
		t.Fatalf("provisional candle entered the ring: count = %d", n)
	}
}

func TestCollectorFinalCandleReachesRingAndWriter(t *testing.T) {
	cache := marketcache.New(0)
	store := &fakeCandleStore{}
	writer := NewCandleWriter(store, nopMetrics{}, testLogger(t), 10, time.Minute)
	col := NewMarketCollector(cache, writer, nopMetrics{}, testLogger(t))

	writer.Start(context.Background())
	col.HandleEvent(context.Background(), &models.StreamEvent{
		Kind:      models.EventCandle,
		Symbol:    "BTCUSDT",
		Timeframe: "15m",
		IsFinal:   true,
		Candle:    &models.Candle{TimestampMs: 1000, Close: 1},
	})
	writer.Stop()

	if n := cache.CandleCount("BTCUSDT", "15m"); n != 1 {
		t.Fatalf("ring count = %d, want 1", n)
	}
	if got := store.batches["BTCUSDT/15m"]; len(got) != 1 || got[0].TimestampMs != 1000 {
		t.Fatalf("persisted batch = %+v", got)
	}
}

func TestCandleWriterStopFlushesPending(t *testing.T) {
	store := &fakeCandleStore{}
	writer := NewCandleWriter(store, nopMetrics{}, testLogger(t), 100, time.Minute)
	writer.Start(context.Background())

	for i := int64(1); i <= 5; i++ {
		writer.Enqueue("ETHUSDT", "1h", models.Candle{TimestampMs: i * 1000, Close: float64(i)})
	}
	writer.Enqueue("BTCUSDT", "1h", models.Candle{TimestampMs: 1000, Close: 9})
	writer.Stop()

	if got := store.batches["ETHUSDT/1h"]; len(got) != 5 {
		t.Fatalf("ETHUSDT batch = %d candles, want 5", len(got))
	}
	if got := store.batches["BTCUSDT/1h"]; len(got) != 1 {
		t.Fatalf("BTCUSDT batch = %d candles, want 1", len(got))
	}
}
