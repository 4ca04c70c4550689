package usecase

import (
	"math"
	"strings"
	"testing"

	"StratCore/internal/domain/models"
	drepo "StratCore/internal/domain/repository"
	"StratCore/internal/service/marketcache"
)

func seedValidatorCandles(t *testing.T, cache *marketcache.Cache, symbol, tf string, closes []float64, barRange float64) {
	t.Helper()
	candles := make([]models.Candle, len(closes))
	for i, cl := range closes {
		candles[i] = models.Candle{
			TimestampMs: int64(i+1) * 900_000,
			Open:        cl,
			High:        cl + barRange/2,
			Low:         cl - barRange/2,
			Close:       cl,
			Volume:      1,
		}
	}
	if got := cache.AddCandles(symbol, tf, candles); got != len(candles) {
		t.Fatalf("seeded %d of %d candles", got, len(candles))
	}
}

func TestValidateInsufficientData(t *testing.T) {
	cache := marketcache.New(0)
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	seedValidatorCandles(t, cache, "BTCUSDT", "15m", closes, 0.5)
	v := NewParameterValidator(cache, testLogger(t))

	report := v.Validate(FamilyOscillator, "BTCUSDT", "15m", nil)
	if report.Valid {
		t.Fatal("40 candles must not validate")
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "insufficient data") {
		t.Fatalf("want single insufficient-data warning, got %v", report.Warnings)
	}
}

func TestSignalsPerDayFifteenMinuteDay(t *testing.T) {
	// 96 fifteen-minute candles span one day, so 24 triggers is 24/day.
	if got := signalsPerDay(24, 96, drepo.TF15m); math.Abs(got-24) > 1e-12 {
		t.Fatalf("signalsPerDay = %v, want 24", got)
	}
	if got := signalsPerDay(24, 96, drepo.TF1h); math.Abs(got-6) > 1e-12 {
		t.Fatalf("hourly signalsPerDay = %v, want 6", got)
	}
}

func TestValidateOscillatorOverTrading(t *testing.T) {
	// A steadily falling day pins RSI at 0 after warmup, so nearly every
	// candle triggers the oversold threshold.
	cache := marketcache.New(0)
	closes := make([]float64, 96)
	c := 100.0
	for i := range closes {
		closes[i] = c
		c *= 0.999
	}
	seedValidatorCandles(t, cache, "BTCUSDT", "15m", closes, 0.1)
	v := NewParameterValidator(cache, testLogger(t))

	report := v.Validate(FamilyOscillator, "BTCUSDT", "15m", map[string]float64{
		"period": 14, "oversold": 30, "overbought": 70,
	})
	if report.Valid {
		t.Fatal("over-trading parameters must not validate")
	}
	if report.Metrics.EstimatedSignalsPerDay <= maxSignalsPerDay {
		t.Fatalf("signals/day = %v, want > %v", report.Metrics.EstimatedSignalsPerDay, maxSignalsPerDay)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "over-trading") {
		t.Fatalf("want single over-trading warning, got %v", report.Warnings)
	}
	if len(report.Suggestions) == 0 {
		t.Fatal("over-trading warning must carry a suggestion")
	}
}

func TestValidateOscillatorImplausibleThresholds(t *testing.T) {
	cache := marketcache.New(0)
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100
	}
	seedValidatorCandles(t, cache, "BTCUSDT", "15m", closes, 0.5)
	v := NewParameterValidator(cache, testLogger(t))

	report := v.Validate(FamilyOscillator, "BTCUSDT", "15m", map[string]float64{
		"oversold": 5, "overbought": 95,
	})
	if report.Valid {
		t.Fatal("implausible thresholds must not validate")
	}
	// Flat RSI sits at 50, so both band violations fire and the zero
	// triggers add an under-trading warning on top.
	if len(report.Warnings) != 3 {
		t.Fatalf("want 2 band warnings plus under-trading, got %v", report.Warnings)
	}
	if !strings.Contains(report.Warnings[0], "oversold") || !strings.Contains(report.Warnings[1], "overbought") {
		t.Fatalf("band warnings missing: %v", report.Warnings)
	}
	if !strings.Contains(report.Warnings[2], "under-trading") {
		t.Fatalf("want under-trading warning last, got %v", report.Warnings)
	}
	if len(report.Suggestions) != 3 {
		t.Fatalf("want a suggestion per warning, got %v", report.Suggestions)
	}
}

func TestValidateOscillatorQuietMarket(t *testing.T) {
	cache := marketcache.New(0)
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 100
	}
	seedValidatorCandles(t, cache, "BTCUSDT", "15m", closes, 0.2)
	v := NewParameterValidator(cache, testLogger(t))

	// Flat RSI never leaves 50, so zero triggers: an under-trading warning.
	report := v.Validate(FamilyOscillator, "BTCUSDT", "15m", nil)
	if report.Valid {
		t.Fatal("zero-signal parameters must not validate")
	}
	if report.Metrics.EstimatedSignalsPerDay != 0 {
		t.Fatalf("signals/day = %v, want 0", report.Metrics.EstimatedSignalsPerDay)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "under-trading") {
		t.Fatalf("want under-trading warning, got %v", report.Warnings)
	}
}

func TestValidateGridRangeAndRatio(t *testing.T) {
	cache := marketcache.New(0)
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100
	}
	seedValidatorCandles(t, cache, "ETHUSDT", "15m", closes, 2)
	v := NewParameterValidator(cache, testLogger(t))

	report := v.Validate(FamilyGrid, "ETHUSDT", "15m", map[string]float64{
		"levels": 10, "lower_price": 110, "upper_price": 90,
	})
	if report.Valid {
		t.Fatal("inverted grid range must not validate")
	}

	// Valid range: 90..110 over 10 levels gives spacing 2; each bar spans
	// exactly one level, ratio 1.0, so no spacing warning fires.
	report = v.Validate(FamilyGrid, "ETHUSDT", "15m", map[string]float64{
		"levels": 10, "lower_price": 90, "upper_price": 110,
	})
	if math.Abs(report.Metrics.VolatilityRatio-1.0) > 1e-9 {
		t.Fatalf("volatility ratio = %v, want 1.0", report.Metrics.VolatilityRatio)
	}
	for _, w := range report.Warnings {
		if strings.Contains(w, "spacing") {
			t.Fatalf("unexpected spacing warning: %v", w)
		}
	}
}

func TestValidateGridSpacingTooWide(t *testing.T) {
	cache := marketcache.New(0)
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100
	}
	seedValidatorCandles(t, cache, "ETHUSDT", "15m", closes, 0.5)
	v := NewParameterValidator(cache, testLogger(t))

	// Spacing 10 against half-point bars: levels almost never fill.
	report := v.Validate(FamilyGrid, "ETHUSDT", "15m", map[string]float64{
		"levels": 2, "lower_price": 90, "upper_price": 110,
	})
	if report.Valid {
		t.Fatal("wide grid spacing must not validate")
	}
	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "rarely fill") {
			found = true
		}
	}
	if !found {
		t.Fatalf("want wide-spacing warning, got %v", report.Warnings)
	}
}

func TestValidateMACross(t *testing.T) {
	cache := marketcache.New(0)
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 100
	}
	seedValidatorCandles(t, cache, "BTCUSDT", "15m", closes, 0.5)
	v := NewParameterValidator(cache, testLogger(t))

	report := v.Validate(FamilyMACross, "BTCUSDT", "15m", map[string]float64{
		"fast_period": 30, "slow_period": 10,
	})
	if report.Valid {
		t.Fatal("fast >= slow must not validate")
	}

	// Flat closes never cross, so the replay estimates zero signals.
	report = v.Validate(FamilyMACross, "BTCUSDT", "15m", map[string]float64{
		"fast_period": 10, "slow_period": 30,
	})
	if report.Metrics.EstimatedSignalsPerDay != 0 {
		t.Fatalf("flat series signals/day = %v, want 0", report.Metrics.EstimatedSignalsPerDay)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "under-trading") {
		t.Fatalf("want under-trading warning, got %v", report.Warnings)
	}
}

func TestValidateUnknownFamily(t *testing.T) {
	cache := marketcache.New(0)
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	seedValidatorCandles(t, cache, "BTCUSDT", "15m", closes, 0.5)
	v := NewParameterValidator(cache, testLogger(t))

	report := v.Validate("martingale", "BTCUSDT", "15m", nil)
	if report.Valid || len(report.Warnings) != 1 {
		t.Fatalf("unknown family must produce one warning, got %+v", report)
	}
}

func TestParameterScoreClamped(t *testing.T) {
	report := &models.ValidationReport{
		Warnings: []string{"a", "b", "c", "d"},
	}
	if got := parameterScore(report); got != 0 {
		t.Fatalf("score = %d, want clamp at 0", got)
	}
	if got := parameterScore(&models.ValidationReport{}); got != 100 {
		t.Fatalf("clean score = %d, want 100", got)
	}
}
