package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StratCore/internal/domain/models"
	"StratCore/internal/service/marketcache"
	applogger "StratCore/pkg/logger"

	"github.com/labstack/echo/v4"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func candlesResponse(t *testing.T, rec *httptest.ResponseRecorder) []models.Candle {
	t.Helper()
	var resp struct {
		Data struct {
			Candles []models.Candle `json:"candles"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Data.Candles
}

func TestCandlesWindowAlignedToBoundaries(t *testing.T) {
	cache := marketcache.New(0)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		cache.AddCandle("BTCUSDT", "1h", models.Candle{
			TimestampMs: ts.UnixMilli(),
			Open:        100, High: 101, Low: 99, Close: 100, Volume: 1,
		})
	}
	h := NewTradingHandler(testLogger(t), cache, nil, nil, nil, nil, nil)
	e := echo.New()

	// Ragged bounds land mid-hour; both must align down to the hour, so
	// the 03:00 and 06:00 candles stay inside the window.
	req := httptest.NewRequest(http.MethodGet,
		"/api/market/candles?symbol=BTCUSDT&tf=1h&from=2026-08-01T03:59:59Z&to=2026-08-01T06:30:00Z", nil)
	rec := httptest.NewRecorder()
	if err := h.Candles(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Candles: %v", err)
	}

	got := candlesResponse(t, rec)
	if len(got) != 4 {
		t.Fatalf("candles in window = %d, want 4 (03:00..06:00)", len(got))
	}
	if got[0].TimestampMs != base.Add(3*time.Hour).UnixMilli() {
		t.Fatalf("first candle = %d, want 03:00", got[0].TimestampMs)
	}
	if got[3].TimestampMs != base.Add(6*time.Hour).UnixMilli() {
		t.Fatalf("last candle = %d, want 06:00", got[3].TimestampMs)
	}
}

func TestCandlesWithoutWindowReturnsRecent(t *testing.T) {
	cache := marketcache.New(0)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		cache.AddCandle("ETHUSDT", "15m", models.Candle{
			TimestampMs: base.Add(time.Duration(i) * 15 * time.Minute).UnixMilli(),
			Close:       float64(i),
		})
	}
	h := NewTradingHandler(testLogger(t), cache, nil, nil, nil, nil, nil)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/market/candles?symbol=ETHUSDT&tf=15m&limit=3", nil)
	rec := httptest.NewRecorder()
	if err := h.Candles(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Candles: %v", err)
	}

	got := candlesResponse(t, rec)
	if len(got) != 3 {
		t.Fatalf("candles = %d, want 3", len(got))
	}
	if got[0].Close != 2 || got[2].Close != 4 {
		t.Fatalf("want the 3 most recent oldest-first, got %+v", got)
	}
}
