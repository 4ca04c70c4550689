package marketcache

import (
	"testing"

	"StratCore/internal/domain/models"
)

func tick(symbol string, price float64) models.PriceTick {
	return models.PriceTick{Symbol: symbol, Price: price, Change24h: 1.5, QuoteVolume: 100, High24h: price + 1, Low24h: price - 1, EventTimeMs: 42, Source: "binance"}
}

func candle(ts int64, close float64) models.Candle {
	return models.Candle{TimestampMs: ts, Open: close - 1, High: close + 1, Low: close - 2, Close: close, Volume: 10}
}

func TestSetGetPriceVerbatim(t *testing.T) {
	c := New(0)
	in := tick("BTCUSDT", 42000)
	c.SetPrice(in)
	got, ok := c.GetPrice("BTCUSDT")
	if !ok {
		t.Fatalf("expected price")
	}
	if got != in {
		t.Fatalf("cache transformed tick: got %+v want %+v", got, in)
	}
}

func TestSetPriceLastWriteWins(t *testing.T) {
	c := New(0)
	first := tick("BTCUSDT", 42000)
	first.EventTimeMs = 2000
	later := tick("BTCUSDT", 41000)
	later.EventTimeMs = 1000 // older event time still overwrites

	c.SetPrice(first)
	c.SetPrice(later)
	got, _ := c.GetPrice("BTCUSDT")
	if got.Price != 41000 {
		t.Fatalf("arrival order must win, got %+v", got)
	}
}

func TestGetPriceMissing(t *testing.T) {
	c := New(0)
	if _, ok := c.GetPrice("NOPE"); ok {
		t.Fatalf("expected miss")
	}
}

func TestCandleRingEviction(t *testing.T) {
	c := New(3)
	for i := int64(1); i <= 3; i++ {
		if !c.AddCandle("BTCUSDT", "15m", candle(i*1000, float64(i))) {
			t.Fatalf("candle %d rejected", i)
		}
	}
	if !c.AddCandle("BTCUSDT", "15m", candle(4000, 4)) {
		t.Fatalf("candle 4 rejected")
	}
	got := c.GetCandles("BTCUSDT", "15m", 0)
	if len(got) != 3 {
		t.Fatalf("ring len = %d, want 3", len(got))
	}
	if got[0].TimestampMs != 2000 || got[2].TimestampMs != 4000 {
		t.Fatalf("oldest not evicted: %+v", got)
	}
}

func TestCandleRejectNonMonotonic(t *testing.T) {
	c := New(10)
	c.AddCandle("BTCUSDT", "15m", candle(1000, 1))
	c.AddCandle("BTCUSDT", "15m", candle(2000, 2))

	if c.AddCandle("BTCUSDT", "15m", candle(2000, 99)) {
		t.Fatalf("duplicate timestamp must be rejected")
	}
	if c.AddCandle("BTCUSDT", "15m", candle(1500, 99)) {
		t.Fatalf("out-of-order timestamp must be rejected")
	}
	got := c.GetCandles("BTCUSDT", "15m", 0)
	if len(got) != 2 || got[1].Close != 2 {
		t.Fatalf("ring changed by rejected insert: %+v", got)
	}
}

func TestAddCandlesSortsAndDedupes(t *testing.T) {
	c := New(10)
	batch := []models.Candle{
		candle(3000, 3), candle(1000, 1), candle(2000, 2), candle(2000, 99),
	}
	if got := c.AddCandles("ETHUSDT", "1h", batch); got != 3 {
		t.Fatalf("accepted = %d, want 3", got)
	}
	out := c.GetCandles("ETHUSDT", "1h", 0)
	for i := 1; i < len(out); i++ {
		if out[i].TimestampMs <= out[i-1].TimestampMs {
			t.Fatalf("ring not ascending: %+v", out)
		}
	}
}

func TestGetCandlesOldestFirstLimit(t *testing.T) {
	c := New(10)
	for i := int64(1); i <= 5; i++ {
		c.AddCandle("BTCUSDT", "1m", candle(i*1000, float64(i)))
	}
	got := c.GetCandles("BTCUSDT", "1m", 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// most recent 3, oldest-first
	if got[0].TimestampMs != 3000 || got[2].TimestampMs != 5000 {
		t.Fatalf("unexpected window: %+v", got)
	}
}

func TestRingsIndependentPerKey(t *testing.T) {
	c := New(10)
	c.AddCandle("BTCUSDT", "1m", candle(5000, 5))
	if !c.AddCandle("BTCUSDT", "15m", candle(1000, 1)) {
		t.Fatalf("per-key monotonicity must be independent")
	}
	if c.CandleCount("BTCUSDT", "1m") != 1 || c.CandleCount("BTCUSDT", "15m") != 1 {
		t.Fatalf("rings not independent")
	}
}
