package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"StratCore/internal/domain/models"
)

func TestPerformanceNeutralPrior(t *testing.T) {
	tracker := NewPerformanceTracker(&fakeOutcomeStore{}, nopMetrics{}, testLogger(t), 0)

	perf, err := tracker.GetStrategyPerformance(context.Background(), "u1", "breakout", 20)
	if err != nil {
		t.Fatalf("GetStrategyPerformance: %v", err)
	}
	if perf.WinRate != 0.5 {
		t.Fatalf("win rate = %v, want 0.5 neutral prior", perf.WinRate)
	}
	if perf.TotalTrades != 0 || perf.AvgPnlPct != 0 {
		t.Fatalf("empty history must yield zero trades and pnl, got %+v", perf)
	}
}

func TestPerformanceRollingWindow(t *testing.T) {
	store := &fakeOutcomeStore{}
	tracker := NewPerformanceTracker(store, nopMetrics{}, testLogger(t), 0)

	// 30 outcomes; the 20 most recent contain 15 wins.
	for i := 0; i < 10; i++ {
		store.outcomes = append(store.outcomes, models.TradeOutcome{
			UserID: "u1", StrategyID: "ma_cross", Result: models.ResultLoss,
		})
	}
	for i := 0; i < 20; i++ {
		result := models.ResultWin
		if i%4 == 3 {
			result = models.ResultLoss
		}
		store.outcomes = append(store.outcomes, models.TradeOutcome{
			UserID: "u1", StrategyID: "ma_cross", Result: result, PnlPct: 1.0,
		})
	}

	perf, err := tracker.GetStrategyPerformance(context.Background(), "u1", "ma_cross", 20)
	if err != nil {
		t.Fatalf("GetStrategyPerformance: %v", err)
	}
	if math.Abs(perf.WinRate-0.75) > 1e-12 {
		t.Fatalf("win rate = %v, want 0.75 over rolling window", perf.WinRate)
	}
	if perf.TotalTrades != 20 {
		t.Fatalf("total trades = %d, want 20", perf.TotalTrades)
	}
}

func TestRecordTradeResultValidation(t *testing.T) {
	tracker := NewPerformanceTracker(&fakeOutcomeStore{}, nopMetrics{}, testLogger(t), 0)
	ctx := context.Background()

	if err := tracker.RecordTradeResult(ctx, nil); err == nil {
		t.Fatal("nil outcome must be rejected")
	}
	if err := tracker.RecordTradeResult(ctx, &models.TradeOutcome{StrategyID: "breakout", Result: models.ResultWin}); err == nil {
		t.Fatal("missing user must be rejected")
	}
	if err := tracker.RecordTradeResult(ctx, &models.TradeOutcome{UserID: "u1", StrategyID: "breakout", Result: "draw"}); err == nil {
		t.Fatal("unknown result must be rejected")
	}

	o := &models.TradeOutcome{UserID: "u1", StrategyID: "breakout", Result: models.ResultBreakeven}
	if err := tracker.RecordTradeResult(ctx, o); err != nil {
		t.Fatalf("valid outcome rejected: %v", err)
	}
	if o.CreatedAt.IsZero() {
		t.Fatal("CreatedAt must be stamped on append")
	}
}

func TestRecordTradeResultPropagatesStoreError(t *testing.T) {
	boom := errors.New("clickhouse down")
	tracker := NewPerformanceTracker(&fakeOutcomeStore{appendErr: boom}, nopMetrics{}, testLogger(t), 0)

	err := tracker.RecordTradeResult(context.Background(), &models.TradeOutcome{
		UserID: "u1", StrategyID: "breakout", Result: models.ResultWin,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
}

func TestRecordTradeResultInvalidatesCache(t *testing.T) {
	store := &fakeOutcomeStore{}
	tracker := NewPerformanceTracker(store, nopMetrics{}, testLogger(t), time.Minute)
	ctx := context.Background()

	if _, err := tracker.GetStrategyPerformance(ctx, "u1", "breakout", 20); err != nil {
		t.Fatalf("warm read: %v", err)
	}
	if err := tracker.RecordTradeResult(ctx, &models.TradeOutcome{
		UserID: "u1", StrategyID: "breakout", Result: models.ResultWin,
	}); err != nil {
		t.Fatalf("RecordTradeResult: %v", err)
	}

	perf, err := tracker.GetStrategyPerformance(ctx, "u1", "breakout", 20)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if perf.WinRate != 1.0 || perf.TotalTrades != 1 {
		t.Fatalf("stale cache served after write: %+v", perf)
	}
}
