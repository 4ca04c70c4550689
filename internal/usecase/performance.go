package usecase

import (
	"context"
	"fmt"
	"time"

	"StratCore/internal/domain/models"
	drepo "StratCore/internal/domain/repository"
	domsvc "StratCore/internal/domain/service"
	icache "StratCore/internal/service/cache"
	applogger "StratCore/pkg/logger"
)

// DefaultPerformanceWindow is the rolling outcome window for win-rate queries.
const DefaultPerformanceWindow = 20

// neutralWinRate is returned when a strategy has no recorded outcomes, so
// untested strategies are neither penalized nor favored during scoring.
const neutralWinRate = 0.5

// PerformanceTracker appends trade outcomes and answers rolling win-rate
// queries. Scores are always recomputed from the append log, never mutated
// in place.
type PerformanceTracker struct {
	store    drepo.OutcomeStore
	metrics  drepo.Metrics
	logger   *applogger.Logger
	cache    *icache.TTLCache
	cacheTTL time.Duration
}

func NewPerformanceTracker(store drepo.OutcomeStore, metrics drepo.Metrics, logger *applogger.Logger, cacheTTL time.Duration) *PerformanceTracker {
	return &PerformanceTracker{
		store:    store,
		metrics:  metrics,
		logger:   logger,
		cache:    icache.NewTTLCache(),
		cacheTTL: cacheTTL,
	}
}

// RecordTradeResult appends one outcome. A write failure is logged and
// returned to the caller; losing an outcome silently would corrupt every
// later win-rate computation.
func (p *PerformanceTracker) RecordTradeResult(ctx context.Context, o *models.TradeOutcome) error {
	if o == nil {
		return fmt.Errorf("outcome is nil")
	}
	if o.UserID == "" || o.StrategyID == "" {
		return fmt.Errorf("outcome requires user and strategy")
	}
	switch o.Result {
	case models.ResultWin, models.ResultLoss, models.ResultBreakeven:
	default:
		return fmt.Errorf("unknown result %q", o.Result)
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	if err := p.store.Append(ctx, o); err != nil {
		p.metrics.RecordError("outcome_append")
		p.logger.Error("trade outcome write failed",
			applogger.String("user", o.UserID),
			applogger.String("strategy", o.StrategyID),
			applogger.Error(err))
		return fmt.Errorf("append outcome: %w", err)
	}
	p.metrics.RecordLatency("outcome_append", time.Since(start).Seconds())
	p.cache.Delete(perfKey(o.UserID, o.StrategyID))
	return nil
}

// GetStrategyPerformance computes the win rate over the most recent limit
// outcomes for (userID, strategyID). Zero recorded trades yields the 0.5
// neutral prior and a zero avgPnlPct.
func (p *PerformanceTracker) GetStrategyPerformance(ctx context.Context, userID, strategyID string, limit int) (models.StrategyPerformance, error) {
	if limit <= 0 {
		limit = DefaultPerformanceWindow
	}

	key := perfKey(userID, strategyID)
	if v, ok := p.cache.Get(key); ok {
		if perf, ok := v.(models.StrategyPerformance); ok {
			return perf, nil
		}
	}

	outcomes, err := p.store.RecentByStrategy(ctx, userID, strategyID, limit)
	if err != nil {
		p.metrics.RecordError("outcome_query")
		return models.StrategyPerformance{}, fmt.Errorf("recent outcomes: %w", err)
	}

	perf := models.StrategyPerformance{
		StrategyID:  strategyID,
		WinRate:     neutralWinRate,
		TotalTrades: len(outcomes),
	}
	if len(outcomes) > 0 {
		wins := 0
		pnlSum := 0.0
		for _, o := range outcomes {
			if o.Result == models.ResultWin {
				wins++
			}
			pnlSum += o.PnlPct
		}
		perf.WinRate = float64(wins) / float64(len(outcomes))
		perf.AvgPnlPct = pnlSum / float64(len(outcomes))
	}

	if p.cacheTTL > 0 {
		p.cache.Set(key, perf, p.cacheTTL)
	}
	return perf, nil
}

func perfKey(userID, strategyID string) string {
	return userID + "|" + strategyID
}

var _ domsvc.PerformanceReader = (*PerformanceTracker)(nil)
