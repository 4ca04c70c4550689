package usecase

import (
	"context"
	"errors"
	"testing"

	"StratCore/internal/domain/models"
)

type fakeMirror struct {
	ticks []models.PriceTick
	err   error
}

func (f *fakeMirror) MirrorTick(_ context.Context, t *models.PriceTick) error {
	if f.err != nil {
		return f.err
	}
	f.ticks = append(f.ticks, *t)
	return nil
}

func (f *fakeMirror) MirrorSelection(_ context.Context, _ *models.SelectionRecord) error {
	return f.err
}

func TestMirrorObserverForwardsTicks(t *testing.T) {
	mirror := &fakeMirror{}
	obs := NewTickMirrorObserver(mirror, nopMetrics{}, testLogger(t))

	obs.HandleEvent(context.Background(), &models.StreamEvent{
		Kind: models.EventTick,
		Tick: &models.PriceTick{Symbol: "BTCUSDT", Price: 42000},
	})
	obs.HandleEvent(context.Background(), &models.StreamEvent{
		Kind: models.EventTickBatch,
		Ticks: []models.PriceTick{
			{Symbol: "ETHUSDT", Price: 2200},
			{Symbol: "SOLUSDT", Price: 150},
		},
	})

	if len(mirror.ticks) != 3 {
		t.Fatalf("mirrored ticks = %d, want 3", len(mirror.ticks))
	}
	if mirror.ticks[2].Symbol != "SOLUSDT" {
		t.Fatalf("unexpected tick order %+v", mirror.ticks)
	}
}

func TestMirrorObserverIgnoresCandles(t *testing.T) {
	mirror := &fakeMirror{}
	obs := NewTickMirrorObserver(mirror, nopMetrics{}, testLogger(t))

	obs.HandleEvent(context.Background(), &models.StreamEvent{
		Kind:    models.EventCandle,
		Symbol:  "BTCUSDT",
		IsFinal: true,
		Candle:  &models.Candle{TimestampMs: 1000, Close: 1},
	})

	if len(mirror.ticks) != 0 {
		t.Fatalf("candle events must not hit the mirror, got %+v", mirror.ticks)
	}
}

func TestMirrorObserverSwallowsWriteErrors(t *testing.T) {
	mirror := &fakeMirror{err: errors.New("redis down")}
	obs := NewTickMirrorObserver(mirror, nopMetrics{}, testLogger(t))

	// Must not panic or propagate; the stream path stays healthy.
	obs.HandleEvent(context.Background(), &models.StreamEvent{
		Kind: models.EventTick,
		Tick: &models.PriceTick{Symbol: "BTCUSDT", Price: 42000},
	})
}
