package marketcache

import (
	"sort"
	"sync"

	"StratCore/internal/domain/models"
)

// DefaultRingCapacity bounds the rolling candle window per (symbol, timeframe).
const DefaultRingCapacity = 500

type ringKey struct {
	symbol    string
	timeframe string
}

// candleRing holds the most recent candles in ascending timestamp order.
// Oldest candles are evicted FIFO at capacity.
type candleRing struct {
	candles  []models.Candle
	capacity int
}

func (r *candleRing) tailTimestamp() int64 {
	if len(r.candles) == 0 {
		return 0
	}
	return r.candles[len(r.candles)-1].TimestampMs
}

func (r *candleRing) append(c models.Candle) bool {
	if len(r.candles) > 0 && c.TimestampMs <= r.tailTimestamp() {
		return false
	}
	r.candles = append(r.candles, c)
	if len(r.candles) > r.capacity {
		r.candles = r.candles[len(r.candles)-r.capacity:]
	}
	return true
}

// Cache is the shared low-latency store for latest ticks and candle rings.
// It is written by the stream collector and read by classification and
// validation; it is never a source of truth for trade settlement.
type Cache struct {
	mu       sync.RWMutex
	prices   map[string]models.PriceTick
	rings    map[ringKey]*candleRing
	capacity int
}

// New creates a market cache. capacity <= 0 selects DefaultRingCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &Cache{
		prices:   make(map[string]models.PriceTick),
		rings:    make(map[ringKey]*candleRing),
		capacity: capacity,
	}
}

// SetPrice upserts the latest tick for a symbol. Last write wins by arrival
// order, not by event time; staleness under reordering is a monitoring
// concern, not a correctness one here.
func (c *Cache) SetPrice(t models.PriceTick) {
	if t.Symbol == "" {
		return
	}
	c.mu.Lock()
	c.prices[t.Symbol] = t
	c.mu.Unlock()
}

// SetPrices bulk-upserts ticks.
func (c *Cache) SetPrices(ticks []models.PriceTick) {
	c.mu.Lock()
	for _, t := range ticks {
		if t.Symbol == "" {
			continue
		}
		c.prices[t.Symbol] = t
	}
	c.mu.Unlock()
}

// GetPrice returns the latest tick for a symbol, verbatim as stored.
func (c *Cache) GetPrice(symbol string) (models.PriceTick, bool) {
	c.mu.RLock()
	t, ok := c.prices[symbol]
	c.mu.RUnlock()
	return t, ok
}

// Symbols returns all symbols with a known price.
func (c *Cache) Symbols() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.prices))
	for s := range c.prices {
		out = append(out, s)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

// AddCandle appends one final candle to the (symbol, timeframe) ring.
// Candles at or before the ring tail are rejected, preserving the
// monotonic-timestamp invariant. Returns false when rejected.
func (c *Cache) AddCandle(symbol, timeframe string, candle models.Candle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ring(symbol, timeframe).append(candle)
}

// AddCandles bulk-appends candles, sorting and deduplicating first since
// backfill sources may return overlapping ranges. Returns how many were
// accepted.
func (c *Cache) AddCandles(symbol, timeframe string, candles []models.Candle) int {
	if len(candles) == 0 {
		return 0
	}
	sorted := make([]models.Candle, len(candles))
	copy(sorted, candles)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TimestampMs < sorted[j].TimestampMs
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	ring := c.ring(symbol, timeframe)
	accepted := 0
	for _, cd := range sorted {
		if ring.append(cd) {
			accepted++
		}
	}
	return accepted
}

// GetCandles returns up to limit most recent candles, oldest-first, for
// indicator computation convenience. limit <= 0 returns the full ring.
func (c *Cache) GetCandles(symbol, timeframe string, limit int) []models.Candle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ring, ok := c.rings[ringKey{symbol: symbol, timeframe: timeframe}]
	if !ok || len(ring.candles) == 0 {
		return nil
	}
	n := len(ring.candles)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.Candle, n)
	copy(out, ring.candles[len(ring.candles)-n:])
	return out
}

// CandleCount returns the current ring length for a key.
func (c *Cache) CandleCount(symbol, timeframe string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ring, ok := c.rings[ringKey{symbol: symbol, timeframe: timeframe}]
	if !ok {
		return 0
	}
	return len(ring.candles)
}

func (c *Cache) ring(symbol, timeframe string) *candleRing {
	key := ringKey{symbol: symbol, timeframe: timeframe}
	ring, ok := c.rings[key]
	if !ok {
		ring = &candleRing{capacity: c.capacity}
		c.rings[key] = ring
	}
	return ring
}
