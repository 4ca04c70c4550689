package binance

import (
	"context"
	"fmt"
	"strconv"

	"StratCore/internal/domain/models"
	xhttp "StratCore/pkg/http"
)

// HistoryClient fetches historical klines from the exchange REST API.
type HistoryClient struct {
	baseURL string
	client  *xhttp.Client
}

// NewHistoryClient creates a history client for baseURL
// (e.g. https://api.binance.com).
func NewHistoryClient(baseURL string, client *xhttp.Client) *HistoryClient {
	return &HistoryClient{baseURL: baseURL, client: client}
}

// FetchCandles fetches up to limit most-recent candles for (symbol, timeframe).
// The endpoint returns tuple arrays:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume, ...].
func (h *HistoryClient) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = 500
	}

	var rows [][]interface{}
	err := h.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    h.baseURL + "/api/v3/klines",
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {timeframe},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, timeframe, err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		c, err := parseKlineRow(row)
		if err != nil {
			// A malformed row must not discard the rest of the batch.
			continue
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parseKlineRow(row []interface{}) (models.Candle, error) {
	var c models.Candle
	if len(row) < 6 {
		return c, fmt.Errorf("short row: %d fields", len(row))
	}
	openTime, ok := row[0].(float64)
	if !ok {
		return c, fmt.Errorf("open time is %T, want number", row[0])
	}
	fields := [5]*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
	for i, dst := range fields {
		s, ok := row[i+1].(string)
		if !ok {
			return c, fmt.Errorf("field %d is %T, want string", i+1, row[i+1])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return c, fmt.Errorf("field %d %q: %w", i+1, s, err)
		}
		*dst = v
	}
	c.TimestampMs = int64(openTime)
	return c, nil
}
