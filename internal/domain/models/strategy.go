package models

import "time"

// Regime is a coarse market condition classification.
type Regime string

const (
	RegimeTrending Regime = "trending"
	RegimeRanging  Regime = "ranging"
	RegimeVolatile Regime = "volatile"
)

// Trend is the directional bias of the reference symbol.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// RegimeSnapshot is an immutable classification result. It is produced
// atomically from a consistent cache read and never updated in place.
type RegimeSnapshot struct {
	Regime     Regime
	BTCTrend   Trend
	ComputedAt time.Time
}

// TradeResult is the outcome classification of a closed trade.
type TradeResult string

const (
	ResultWin       TradeResult = "win"
	ResultLoss      TradeResult = "loss"
	ResultBreakeven TradeResult = "breakeven"
)

// TradeOutcome is an append-only record of a completed trade, the source
// of truth for win-rate computation.
type TradeOutcome struct {
	UserID     string
	StrategyID string
	Symbol     string
	Regime     Regime
	Result     TradeResult
	PnlPct     float64
	CreatedAt  time.Time
}

// StrategyPerformance is the rolling performance view over the last K outcomes.
type StrategyPerformance struct {
	StrategyID  string
	WinRate     float64
	TotalTrades int
	AvgPnlPct   float64 // diagnostic only, not used in scoring
}

// StrategyScore is the per-cycle ranking input for one strategy.
type StrategyScore struct {
	StrategyID   string  `json:"strategy_id"`
	RegimeScore  float64 `json:"regime_score"`
	WinRateScore float64 `json:"win_rate_score"`
	TotalScore   float64 `json:"total_score"`
	WinRate      float64 `json:"win_rate"`
	TotalTrades  int     `json:"total_trades"`
}

// SelectionRecord is the append-only audit row for one selection decision.
type SelectionRecord struct {
	UserID             string
	SelectedStrategyID string
	Regime             Regime
	BTCTrend           Trend
	TotalScore         float64
	RegimeScore        float64
	WinRateScore       float64
	Alternatives       []StrategyScore
	CreatedAt          time.Time
}

// ValidationMetrics summarizes a historical replay of proposed parameters.
type ValidationMetrics struct {
	EstimatedSignalsPerDay float64 `json:"estimated_signals_per_day"`
	VolatilityRatio        float64 `json:"volatility_ratio,omitempty"`
	ParameterScore         int     `json:"parameter_score"`
}

// ValidationReport is the advisory output of parameter validation.
// Valid is true iff no warnings were produced; it never blocks activation
// by itself.
type ValidationReport struct {
	Valid       bool              `json:"valid"`
	Warnings    []string          `json:"warnings"`
	Suggestions []string          `json:"suggestions"`
	Metrics     ValidationMetrics `json:"metrics"`
}
