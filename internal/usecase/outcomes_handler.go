package usecase

import (
	"context"
	"encoding/json"
	"time"

	"StratCore/internal/domain/models"
	drepo "StratCore/internal/domain/repository"
	pkgkafka "StratCore/pkg/kafka"
)

// OutcomesHandler consumes closed-trade outcomes published by the execution
// loop and feeds them into the performance tracker.
type OutcomesHandler struct {
	topic   string
	tracker *PerformanceTracker
	metrics drepo.Metrics
}

func NewOutcomesHandler(topic string, tracker *PerformanceTracker, metrics drepo.Metrics) *OutcomesHandler {
	return &OutcomesHandler{topic: topic, tracker: tracker, metrics: metrics}
}

func (h *OutcomesHandler) Topic() string { return h.topic }

// incoming message schema: {user_id, strategy_id, symbol, regime, result, pnl_pct, closed_at}
func (h *OutcomesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		UserID     string  `json:"user_id"`
		StrategyID string  `json:"strategy_id"`
		Symbol     string  `json:"symbol"`
		Regime     string  `json:"regime"`
		Result     string  `json:"result"`
		PnlPct     float64 `json:"pnl_pct"`
		ClosedAt   int64   `json:"closed_at"` // unix seconds or ms
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("outcome_unmarshal")
		return err
	}
	if m.ClosedAt > 1e11 { // ms
		m.ClosedAt = m.ClosedAt / 1000
	}

	outcome := &models.TradeOutcome{
		UserID:     m.UserID,
		StrategyID: m.StrategyID,
		Symbol:     m.Symbol,
		Regime:     models.Regime(m.Regime),
		Result:     models.TradeResult(m.Result),
		PnlPct:     m.PnlPct,
	}
	if m.ClosedAt > 0 {
		outcome.CreatedAt = time.Unix(m.ClosedAt, 0).UTC()
		h.metrics.RecordLatency("outcome_e2e_seconds", time.Since(outcome.CreatedAt).Seconds())
	}
	return h.tracker.RecordTradeResult(ctx, outcome)
}

var _ pkgkafka.MessageHandler = (*OutcomesHandler)(nil)
