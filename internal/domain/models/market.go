package models

// PriceTick is the latest known 24h rolling view for a symbol.
// Ephemeral: each new tick for a symbol overwrites the previous one.
type PriceTick struct {
	Symbol      string
	Price       float64
	Change24h   float64 // percent
	QuoteVolume float64
	High24h     float64
	Low24h      float64
	EventTimeMs int64
	Source      string
}

// Candle is a single OHLCV bar keyed by (symbol, timeframe) open time.
type Candle struct {
	TimestampMs int64 // open time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
}

// StreamEventKind discriminates parsed stream frames.
type StreamEventKind int

const (
	EventTick StreamEventKind = iota
	EventTickBatch
	EventCandle
)

// StreamEvent is a decoded market-data frame.
// Exactly one of Tick, Ticks, or Candle is populated depending on Kind.
type StreamEvent struct {
	Kind      StreamEventKind
	Tick      *PriceTick
	Ticks     []PriceTick
	Symbol    string
	Timeframe string
	Candle    *Candle
	IsFinal   bool
}
