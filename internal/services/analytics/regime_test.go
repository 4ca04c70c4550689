package analytics

import (
	"math"
	"testing"

	"StratCore/internal/domain/models"
	"StratCore/internal/service/marketcache"
)

func seedCandles(t *testing.T, cache *marketcache.Cache, closes []float64) {
	t.Helper()
	candles := make([]models.Candle, len(closes))
	for i, cl := range closes {
		candles[i] = models.Candle{
			TimestampMs: int64(i+1) * 900_000,
			Open:        cl, High: cl, Low: cl, Close: cl, Volume: 1,
		}
	}
	if got := cache.AddCandles("BTCUSDT", "15m", candles); got != len(candles) {
		t.Fatalf("seeded %d of %d candles", got, len(candles))
	}
}

func geometricCloses(start, ratio float64, n int) []float64 {
	out := make([]float64, n)
	c := start
	for i := 0; i < n; i++ {
		out[i] = c
		c *= ratio
	}
	return out
}

func TestClassifyTrendingBullish(t *testing.T) {
	cache := marketcache.New(0)
	seedCandles(t, cache, geometricCloses(100, 1.005, 100))

	snap := NewClassifier(cache, "BTCUSDT", "15m").Classify()
	if snap.Regime != models.RegimeTrending {
		t.Fatalf("regime = %s, want trending", snap.Regime)
	}
	if snap.BTCTrend != models.TrendBullish {
		t.Fatalf("trend = %s, want bullish", snap.BTCTrend)
	}
}

func TestClassifyTrendingBearish(t *testing.T) {
	cache := marketcache.New(0)
	seedCandles(t, cache, geometricCloses(100, 0.995, 100))

	snap := NewClassifier(cache, "BTCUSDT", "15m").Classify()
	if snap.Regime != models.RegimeTrending || snap.BTCTrend != models.TrendBearish {
		t.Fatalf("got %s/%s, want trending/bearish", snap.Regime, snap.BTCTrend)
	}
}

func TestClassifyRangingNeutral(t *testing.T) {
	cache := marketcache.New(0)
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100
	}
	seedCandles(t, cache, closes)

	snap := NewClassifier(cache, "BTCUSDT", "15m").Classify()
	if snap.Regime != models.RegimeRanging || snap.BTCTrend != models.TrendNeutral {
		t.Fatalf("got %s/%s, want ranging/neutral", snap.Regime, snap.BTCTrend)
	}
}

func TestClassifyVolatile(t *testing.T) {
	cache := marketcache.New(0)
	closes := make([]float64, 100)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100
		} else {
			closes[i] = 103
		}
	}
	seedCandles(t, cache, closes)

	snap := NewClassifier(cache, "BTCUSDT", "15m").Classify()
	if snap.Regime != models.RegimeVolatile {
		t.Fatalf("regime = %s, want volatile", snap.Regime)
	}
}

func TestClassifyInsufficientHistory(t *testing.T) {
	cache := marketcache.New(0)
	seedCandles(t, cache, geometricCloses(100, 1.01, 10))

	snap := NewClassifier(cache, "BTCUSDT", "15m").Classify()
	if snap.Regime != models.RegimeRanging || snap.BTCTrend != models.TrendNeutral {
		t.Fatalf("short history must degrade to ranging/neutral, got %s/%s", snap.Regime, snap.BTCTrend)
	}
}

func TestRSIBounds(t *testing.T) {
	candles := make([]models.Candle, 40)
	c := 100.0
	for i := range candles {
		if i%3 == 0 {
			c *= 1.01
		} else {
			c *= 0.997
		}
		candles[i] = models.Candle{TimestampMs: int64(i + 1), Close: c}
	}
	rsi := RSI(candles, 14)
	for i := 0; i < 14; i++ {
		if !math.IsNaN(rsi[i]) {
			t.Fatalf("rsi[%d] should be NaN during warmup", i)
		}
	}
	for i := 14; i < len(rsi); i++ {
		if rsi[i] < 0 || rsi[i] > 100 {
			t.Fatalf("rsi[%d] = %v out of range", i, rsi[i])
		}
	}
}

func TestRealizedVolatilityFlat(t *testing.T) {
	returns := make([]float64, 50)
	if got := RealizedVolatility(returns, 30, BarsPerYearForTF("15m")); got != 0 {
		t.Fatalf("flat series vol = %v, want 0", got)
	}
}
