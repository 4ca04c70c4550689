package repository

import (
	"context"

	"StratCore/internal/domain/models"
)

// EventHandler receives decoded market-data events from the stream.
type EventHandler func(ctx context.Context, ev *models.StreamEvent)

// MarketStream maintains streaming connectivity to the exchange and pushes
// decoded events to a handler. Implementations own reconnect and heartbeat.
type MarketStream interface {
	Start(ctx context.Context, handler EventHandler) error
	// AddObserver registers a side-channel consumer that receives every
	// decoded event, including provisional candles, after the handler.
	AddObserver(handler EventHandler)
	Stop() error
	IsConnected() bool
}

// CandleHistory fetches historical candles from the exchange REST API.
type CandleHistory interface {
	FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)
}

// OutcomeStore persists and queries append-only trade outcomes.
type OutcomeStore interface {
	Append(ctx context.Context, o *models.TradeOutcome) error
	RecentByStrategy(ctx context.Context, userID, strategyID string, limit int) ([]models.TradeOutcome, error)
}

// SelectionStore persists append-only selection audit records.
type SelectionStore interface {
	Append(ctx context.Context, r *models.SelectionRecord) error
	Latest(ctx context.Context, userID string) (*models.SelectionRecord, error)
}

// CandleStore persists final candles so restarts can warm the cache from
// durable storage before hitting the exchange.
type CandleStore interface {
	AppendBatch(ctx context.Context, symbol, timeframe string, candles []models.Candle) error
	Recent(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)
}

// SelectionPublisher notifies the external trading loop of a new decision.
type SelectionPublisher interface {
	PublishSelection(ctx context.Context, r *models.SelectionRecord) error
	Close() error
}

// TickMirror is a best-effort write-through of hot state for cross-process
// readers. Mirror failures must never be fatal.
type TickMirror interface {
	MirrorTick(ctx context.Context, t *models.PriceTick) error
	MirrorSelection(ctx context.Context, r *models.SelectionRecord) error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordFrame(stream string)
	RecordParseError(stream string)
	RecordReconnect(stream string)
	RecordLastPrice(symbol string, price float64)
	RecordSelection(strategyID string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
