package models

// Requests for trading HTTP endpoints. Defined in domain for consistency and reuse.

type PriceRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"15m" validate:"oneof=1m 5m 15m 1h"`
	Limit  int    `query:"limit" json:"limit" default:"200" validate:"gte=1,lte=500"`
	// Optional window bounds, RFC3339 or unix seconds; aligned down to
	// candle boundaries before filtering.
	From string `query:"from" json:"from"`
	To   string `query:"to" json:"to"`
}

type ActiveStrategyRequest struct {
	UserID string `query:"user_id" json:"user_id" validate:"required"`
}

type StrategyScoresRequest struct {
	UserID string `query:"user_id" json:"user_id" validate:"required"`
}

type ValidateParamsRequest struct {
	Family string             `json:"family" validate:"required,oneof=oscillator grid ma_cross"`
	Symbol string             `json:"symbol" validate:"required"`
	TF     string             `json:"tf" default:"15m" validate:"oneof=1m 5m 15m 1h"`
	Params map[string]float64 `json:"params" validate:"required"`
}

type RecordOutcomeRequest struct {
	UserID     string  `json:"user_id" validate:"required"`
	StrategyID string  `json:"strategy_id" validate:"required"`
	Symbol     string  `json:"symbol" validate:"required"`
	Regime     string  `json:"regime" default:"ranging" validate:"oneof=trending ranging volatile"`
	Result     string  `json:"result" validate:"required,oneof=win loss breakeven"`
	PnlPct     float64 `json:"pnl_pct"`
}

type PerformanceRequest struct {
	UserID     string `query:"user_id" json:"user_id" validate:"required"`
	StrategyID string `query:"strategy_id" json:"strategy_id" validate:"required"`
	Limit      int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=200"`
}
