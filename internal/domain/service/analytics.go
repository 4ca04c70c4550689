package service

import (
	"context"

	"StratCore/internal/domain/models"
)

// RegimeClassifier derives a market regime and directional bias from
// current market state.
type RegimeClassifier interface {
	Classify() models.RegimeSnapshot
}

// PerformanceReader answers rolling win-rate queries for scoring.
type PerformanceReader interface {
	GetStrategyPerformance(ctx context.Context, userID, strategyID string, limit int) (models.StrategyPerformance, error)
}
