package analytics

import (
	"math"
	"time"

	"StratCore/internal/domain/models"
	domsvc "StratCore/internal/domain/service"
	"StratCore/internal/service/marketcache"
)

// Classifier derives a coarse market regime and a directional bias for the
// reference symbol from current MarketCache contents.
type Classifier struct {
	cache     *marketcache.Cache
	refSymbol string
	timeframe string

	// realized-vol banding and moving-average slope thresholds
	volHighBand float64
	trendBand   float64
}

// ClassifierOption configures Classifier.
type ClassifierOption func(*Classifier)

// WithVolBand sets the annualized realized-vol threshold for "volatile".
func WithVolBand(v float64) ClassifierOption {
	return func(c *Classifier) {
		if v > 0 {
			c.volHighBand = v
		}
	}
}

// WithTrendBand sets the SMA-slope magnitude threshold for "trending".
func WithTrendBand(v float64) ClassifierOption {
	return func(c *Classifier) {
		if v > 0 {
			c.trendBand = v
		}
	}
}

// NewClassifier creates a regime classifier over cache. refSymbol is the
// directional reference (typically BTCUSDT).
func NewClassifier(cache *marketcache.Cache, refSymbol, timeframe string, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		cache:       cache,
		refSymbol:   refSymbol,
		timeframe:   timeframe,
		volHighBand: 0.80,
		trendBand:   0.004,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const (
	classifyWindow = 100
	smaShortPeriod = 10
	smaLongPeriod  = 30
	volWindow      = 30
)

// Classify returns a fresh, immutable snapshot computed synchronously from
// one consistent cache read. With too little history it degrades to a
// neutral ranging snapshot rather than guessing.
func (c *Classifier) Classify() models.RegimeSnapshot {
	snap := models.RegimeSnapshot{
		Regime:     models.RegimeRanging,
		BTCTrend:   models.TrendNeutral,
		ComputedAt: time.Now().UTC(),
	}

	candles := c.cache.GetCandles(c.refSymbol, c.timeframe, classifyWindow)
	if len(candles) < smaLongPeriod+1 {
		return snap
	}

	smaShort := SMA(candles, smaShortPeriod)
	smaLong := SMA(candles, smaLongPeriod)
	slope := 0.0
	if smaLong > 0 {
		slope = (smaShort - smaLong) / smaLong
	}

	switch {
	case slope > c.trendBand:
		snap.BTCTrend = models.TrendBullish
	case slope < -c.trendBand:
		snap.BTCTrend = models.TrendBearish
	}

	returns := ComputeLogReturns(candles)
	vol := RealizedVolatility(returns, volWindow, BarsPerYearForTF(c.timeframe))

	switch {
	case vol >= c.volHighBand:
		snap.Regime = models.RegimeVolatile
	case math.Abs(slope) >= c.trendBand:
		snap.Regime = models.RegimeTrending
	}
	return snap
}

var _ domsvc.RegimeClassifier = (*Classifier)(nil)
