package strategy

import "StratCore/internal/domain/models"

// ID identifies a strategy in the closed catalog.
type ID string

const (
	RSIReversal ID = "rsi_reversal"
	TrendFollow ID = "trend_follow"
	MACross     ID = "ma_cross"
	GridTrading ID = "grid_trading"
	Breakout    ID = "breakout"
)

// Scoring weights. Fixed constants, must sum to 1.0.
const (
	RegimeWeight  = 0.7
	WinRateWeight = 0.3

	// Floor applied when the regime does not suit the strategy, so no
	// strategy is mathematically unselectable by regime alone.
	regimeFloor = 0.2
)

// Spec declares how a strategy relates to market regimes.
type Spec struct {
	ID              ID
	Name            string
	SuitableRegimes []models.Regime
	// TrendOverride replaces (not multiplies) the regime score when the
	// classified regime is trending. Regime type alone is insufficient
	// context for trend-dependent strategies.
	TrendOverride map[models.Trend]float64
}

// catalog is the fixed, ordered strategy table. Order is the deterministic
// tie-breaker during ranking.
var catalog = []Spec{
	{
		ID:              RSIReversal,
		Name:            "RSI Reversal",
		SuitableRegimes: []models.Regime{models.RegimeRanging, models.RegimeVolatile},
		TrendOverride: map[models.Trend]float64{
			// catches bounces in a falling market
			models.TrendBearish: 1.0,
			models.TrendBullish: 0.5,
		},
	},
	{
		ID:              TrendFollow,
		Name:            "Trend Following",
		SuitableRegimes: []models.Regime{models.RegimeTrending},
		TrendOverride: map[models.Trend]float64{
			models.TrendBullish: 1.0,
			models.TrendBearish: 0.3,
		},
	},
	{
		ID:              MACross,
		Name:            "MA Crossover",
		SuitableRegimes: []models.Regime{models.RegimeTrending},
	},
	{
		ID:              GridTrading,
		Name:            "Grid Trading",
		SuitableRegimes: []models.Regime{models.RegimeRanging},
	},
	{
		ID:              Breakout,
		Name:            "Breakout",
		SuitableRegimes: []models.Regime{models.RegimeVolatile, models.RegimeTrending},
	},
}

// Catalog returns the ordered strategy table.
func Catalog() []Spec { return catalog }

// Lookup returns the spec for id, or false if unknown.
func Lookup(id ID) (Spec, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Spec{}, false
}

// RegimeScore scores how well a strategy suits the classified regime.
func RegimeScore(s Spec, snap models.RegimeSnapshot) float64 {
	score := regimeFloor
	for _, r := range s.SuitableRegimes {
		if r == snap.Regime {
			score = 1.0
			break
		}
	}
	if snap.Regime == models.RegimeTrending && s.TrendOverride != nil {
		if override, ok := s.TrendOverride[snap.BTCTrend]; ok {
			score = override
		}
	}
	return score
}

// TotalScore combines regime fit and rolling win rate.
func TotalScore(regimeScore, winRateScore float64) float64 {
	return regimeScore*RegimeWeight + winRateScore*WinRateWeight
}
