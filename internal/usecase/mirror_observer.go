package usecase

import (
	"context"

	"StratCore/internal/domain/models"
	drepo "StratCore/internal/domain/repository"
	applogger "StratCore/pkg/logger"
)

// TickMirrorObserver is a stream observer that writes every tick through
// to the hot-state mirror. It runs off the collector's cache path so a
// slow or dead mirror never delays in-memory state; failures are counted
// and logged, never propagated.
type TickMirrorObserver struct {
	mirror  drepo.TickMirror
	metrics drepo.Metrics
	logger  *applogger.Logger
}

func NewTickMirrorObserver(mirror drepo.TickMirror, metrics drepo.Metrics, logger *applogger.Logger) *TickMirrorObserver {
	return &TickMirrorObserver{mirror: mirror, metrics: metrics, logger: logger}
}

// HandleEvent implements repository.EventHandler.
func (o *TickMirrorObserver) HandleEvent(ctx context.Context, ev *models.StreamEvent) {
	if ev == nil {
		return
	}
	switch ev.Kind {
	case models.EventTick:
		o.mirrorTick(ctx, ev.Tick)
	case models.EventTickBatch:
		for i := range ev.Ticks {
			o.mirrorTick(ctx, &ev.Ticks[i])
		}
	}
}

func (o *TickMirrorObserver) mirrorTick(ctx context.Context, t *models.PriceTick) {
	if t == nil {
		return
	}
	if err := o.mirror.MirrorTick(ctx, t); err != nil {
		o.metrics.RecordError("tick_mirror")
		o.logger.Debug("tick mirror write failed",
			applogger.String("symbol", t.Symbol),
			applogger.Error(err))
	}
}
