package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"StratCore/internal/domain/models"
	drepo "StratCore/internal/domain/repository"
)

// RedisMirrorConfig configures the hot-state mirror.
type RedisMirrorConfig struct {
	Addr     string
	Password string
	DB       int
	TickTTL  time.Duration
}

// RedisMirror writes the latest tick and selection per key into Redis so
// other processes (dashboards, the execution loop) can read hot state
// without touching this service. Writes are best-effort by contract.
type RedisMirror struct {
	cli     *redis.Client
	tickTTL time.Duration
}

func NewRedisMirror(cfg RedisMirrorConfig) *RedisMirror {
	ttl := cfg.TickTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	cli := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return &RedisMirror{cli: cli, tickTTL: ttl}
}

func (m *RedisMirror) MirrorTick(ctx context.Context, t *models.PriceTick) error {
	b, err := json.Marshal(map[string]interface{}{
		"symbol":       t.Symbol,
		"price":        t.Price,
		"change_24h":   t.Change24h,
		"quote_volume": t.QuoteVolume,
		"event_time":   t.EventTimeMs,
	})
	if err != nil {
		return err
	}
	return m.cli.Set(ctx, tickKey(t.Symbol), b, m.tickTTL).Err()
}

func (m *RedisMirror) MirrorSelection(ctx context.Context, r *models.SelectionRecord) error {
	b, err := json.Marshal(map[string]interface{}{
		"selected_strategy": r.SelectedStrategyID,
		"regime":            string(r.Regime),
		"btc_trend":         string(r.BTCTrend),
		"total_score":       r.TotalScore,
		"created_at":        r.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return err
	}
	// Selections have no TTL; the latest decision stays readable until the
	// next one replaces it.
	return m.cli.Set(ctx, selectionKey(r.UserID), b, 0).Err()
}

func (m *RedisMirror) Health(ctx context.Context) error {
	return m.cli.Ping(ctx).Err()
}

func (m *RedisMirror) Close() error {
	return m.cli.Close()
}

func tickKey(symbol string) string { return fmt.Sprintf("stratcore:tick:%s", symbol) }

func selectionKey(userID string) string { return fmt.Sprintf("stratcore:selection:%s", userID) }

var _ drepo.TickMirror = (*RedisMirror)(nil)
