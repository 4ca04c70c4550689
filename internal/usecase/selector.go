package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"StratCore/internal/domain/models"
	drepo "StratCore/internal/domain/repository"
	domsvc "StratCore/internal/domain/service"
	"StratCore/internal/strategy"
	applogger "StratCore/pkg/logger"
)

// DefaultScanInterval is the fixed selection cadence, independent of market
// data arrival rate.
const DefaultScanInterval = 30 * time.Second

// StrategySelector runs the decision loop: classify the market, score every
// catalog strategy, commit the top-ranked one. The selector holds no mutable
// state between cycles beyond what is durably persisted.
type StrategySelector struct {
	classifier domsvc.RegimeClassifier
	perf       domsvc.PerformanceReader
	selections drepo.SelectionStore
	publisher  drepo.SelectionPublisher
	mirror     drepo.TickMirror
	metrics    drepo.Metrics
	logger     *applogger.Logger

	userID   string
	interval time.Duration
	window   int
}

func NewStrategySelector(
	classifier domsvc.RegimeClassifier,
	perf domsvc.PerformanceReader,
	selections drepo.SelectionStore,
	publisher drepo.SelectionPublisher,
	mirror drepo.TickMirror,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	userID string,
	interval time.Duration,
) *StrategySelector {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	return &StrategySelector{
		classifier: classifier,
		perf:       perf,
		selections: selections,
		publisher:  publisher,
		mirror:     mirror,
		metrics:    metrics,
		logger:     logger,
		userID:     userID,
		interval:   interval,
		window:     DefaultPerformanceWindow,
	}
}

// Run executes the selection loop until ctx is cancelled. The stop signal
// is checked at the top of each iteration so shutdown never interrupts a
// decision mid-cycle.
func (s *StrategySelector) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("strategy selector stopped")
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return
		}

		rec, err := s.SelectOnce(ctx)
		if err != nil {
			s.logger.Error("selection cycle failed", applogger.Error(err))
			continue
		}
		s.logger.Info("strategy selected",
			applogger.String("strategy", rec.SelectedStrategyID),
			applogger.String("regime", string(rec.Regime)),
			applogger.String("btc_trend", string(rec.BTCTrend)),
			applogger.Any("total_score", rec.TotalScore))
	}
}

// SelectOnce performs one selection cycle: snapshot the regime, score the
// catalog, persist the audit record, and notify the execution loop. The
// result is a pure function of the snapshot and the performance state, so
// identical inputs always produce the same ranking.
func (s *StrategySelector) SelectOnce(ctx context.Context) (*models.SelectionRecord, error) {
	start := time.Now()
	snap := s.classifier.Classify()

	scores, err := s.ScoreAll(ctx, snap)
	if err != nil {
		return nil, err
	}

	winner := scores[0]
	rec := &models.SelectionRecord{
		UserID:             s.userID,
		SelectedStrategyID: winner.StrategyID,
		Regime:             snap.Regime,
		BTCTrend:           snap.BTCTrend,
		TotalScore:         winner.TotalScore,
		RegimeScore:        winner.RegimeScore,
		WinRateScore:       winner.WinRateScore,
		Alternatives:       scores,
		CreatedAt:          time.Now().UTC(),
	}

	if err := s.selections.Append(ctx, rec); err != nil {
		s.metrics.RecordError("selection_append")
		return nil, fmt.Errorf("persist selection: %w", err)
	}

	// Notification and mirroring are best-effort; the audit row above is
	// the committed decision and the execution loop can always poll it.
	if s.publisher != nil {
		if err := s.publisher.PublishSelection(ctx, rec); err != nil {
			s.metrics.RecordError("selection_publish")
			s.logger.Warn("selection publish failed", applogger.Error(err))
		}
	}
	if s.mirror != nil {
		if err := s.mirror.MirrorSelection(ctx, rec); err != nil {
			s.metrics.RecordError("selection_mirror")
			s.logger.Warn("selection mirror failed", applogger.Error(err))
		}
	}

	s.metrics.RecordSelection(rec.SelectedStrategyID)
	s.metrics.RecordLatency("selection_cycle", time.Since(start).Seconds())
	return rec, nil
}

// ScoreAll scores every catalog strategy against the snapshot. Ranking is
// by total score descending; ties keep catalog order.
func (s *StrategySelector) ScoreAll(ctx context.Context, snap models.RegimeSnapshot) ([]models.StrategyScore, error) {
	catalog := strategy.Catalog()
	scores := make([]models.StrategyScore, 0, len(catalog))
	for _, spec := range catalog {
		perf, err := s.perf.GetStrategyPerformance(ctx, s.userID, string(spec.ID), s.window)
		if err != nil {
			return nil, fmt.Errorf("performance for %s: %w", spec.ID, err)
		}
		regimeScore := strategy.RegimeScore(spec, snap)
		scores = append(scores, models.StrategyScore{
			StrategyID:   string(spec.ID),
			RegimeScore:  regimeScore,
			WinRateScore: perf.WinRate,
			TotalScore:   strategy.TotalScore(regimeScore, perf.WinRate),
			WinRate:      perf.WinRate,
			TotalTrades:  perf.TotalTrades,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})
	return scores, nil
}

// ActiveStrategy returns the most recently committed selection for a user.
func (s *StrategySelector) ActiveStrategy(ctx context.Context, userID string) (*models.SelectionRecord, error) {
	rec, err := s.selections.Latest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("latest selection: %w", err)
	}
	return rec, nil
}
