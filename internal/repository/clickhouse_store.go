package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"StratCore/internal/domain/models"
	drepo "StratCore/internal/domain/repository"
)

// Table names in the stratcore database.
const (
	OutcomesTable   = "trade_outcomes"
	SelectionsTable = "strategy_selections"
	CandlesTable    = "candles"
)

// SchemaStatements returns idempotent DDL for the persistence tables.
func SchemaStatements(database string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			user_id String,
			strategy_id String,
			symbol String,
			regime String,
			result String,
			pnl_pct Float64,
			created_at DateTime64(3)
		) ENGINE = MergeTree() ORDER BY (user_id, strategy_id, created_at)`, database, OutcomesTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			user_id String,
			selected_strategy String,
			regime String,
			btc_trend String,
			total_score Float64,
			regime_score Float64,
			win_rate_score Float64,
			alternatives String,
			created_at DateTime64(3)
		) ENGINE = MergeTree() ORDER BY (user_id, created_at)`, database, SelectionsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			symbol String,
			timeframe String,
			open_time DateTime64(3),
			open Float64,
			high Float64,
			low Float64,
			close Float64,
			volume Float64
		) ENGINE = ReplacingMergeTree() ORDER BY (symbol, timeframe, open_time)`, database, CandlesTable),
	}
}

// ClickHouseOutcomeStore persists append-only trade outcomes.
type ClickHouseOutcomeStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseOutcomeStore(db *sql.DB) drepo.OutcomeStore {
	return &ClickHouseOutcomeStore{db: db, table: OutcomesTable}
}

func (s *ClickHouseOutcomeStore) Append(ctx context.Context, o *models.TradeOutcome) error {
	q := fmt.Sprintf("INSERT INTO %s (user_id, strategy_id, symbol, regime, result, pnl_pct, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		o.UserID, o.StrategyID, o.Symbol, string(o.Regime), string(o.Result), o.PnlPct, o.CreatedAt)
	return err
}

func (s *ClickHouseOutcomeStore) RecentByStrategy(ctx context.Context, userID, strategyID string, limit int) ([]models.TradeOutcome, error) {
	q := fmt.Sprintf("SELECT user_id, strategy_id, symbol, regime, result, pnl_pct, created_at FROM %s WHERE user_id = ? AND strategy_id = ? ORDER BY created_at DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, userID, strategyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TradeOutcome
	for rows.Next() {
		var o models.TradeOutcome
		var regime, result string
		if err := rows.Scan(&o.UserID, &o.StrategyID, &o.Symbol, &regime, &result, &o.PnlPct, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Regime = models.Regime(regime)
		o.Result = models.TradeResult(result)
		out = append(out, o)
	}
	return out, rows.Err()
}

// ClickHouseSelectionStore persists append-only selection audit records.
// Alternatives are stored as a JSON column; they are read back whole for
// display, never filtered server-side.
type ClickHouseSelectionStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseSelectionStore(db *sql.DB) drepo.SelectionStore {
	return &ClickHouseSelectionStore{db: db, table: SelectionsTable}
}

func (s *ClickHouseSelectionStore) Append(ctx context.Context, r *models.SelectionRecord) error {
	alts, err := json.Marshal(r.Alternatives)
	if err != nil {
		return fmt.Errorf("marshal alternatives: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s (user_id, selected_strategy, regime, btc_trend, total_score, regime_score, win_rate_score, alternatives, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err = s.db.ExecContext(ctx, q,
		r.UserID, r.SelectedStrategyID, string(r.Regime), string(r.BTCTrend),
		r.TotalScore, r.RegimeScore, r.WinRateScore, string(alts), r.CreatedAt)
	return err
}

func (s *ClickHouseSelectionStore) Latest(ctx context.Context, userID string) (*models.SelectionRecord, error) {
	q := fmt.Sprintf("SELECT user_id, selected_strategy, regime, btc_trend, total_score, regime_score, win_rate_score, alternatives, created_at FROM %s WHERE user_id = ? ORDER BY created_at DESC LIMIT 1", s.table)
	row := s.db.QueryRowContext(ctx, q, userID)

	var r models.SelectionRecord
	var regime, trend, alts string
	err := row.Scan(&r.UserID, &r.SelectedStrategyID, &regime, &trend,
		&r.TotalScore, &r.RegimeScore, &r.WinRateScore, &alts, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Regime = models.Regime(regime)
	r.BTCTrend = models.Trend(trend)
	if alts != "" {
		if err := json.Unmarshal([]byte(alts), &r.Alternatives); err != nil {
			return nil, fmt.Errorf("unmarshal alternatives: %w", err)
		}
	}
	return &r, nil
}

// ClickHouseCandleStore persists final candles for warm restarts.
type ClickHouseCandleStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseCandleStore(db *sql.DB) drepo.CandleStore {
	return &ClickHouseCandleStore{db: db, table: CandlesTable}
}

func (s *ClickHouseCandleStore) AppendBatch(ctx context.Context, symbol, timeframe string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	// Multi-row VALUES to reduce round-trips; batches here are small.
	values := make([]string, 0, len(candles))
	args := make([]interface{}, 0, len(candles)*8)
	for _, c := range candles {
		if c.TimestampMs <= 0 {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			symbol, timeframe, time.UnixMilli(c.TimestampMs),
			c.Open, c.High, c.Low, c.Close, c.Volume)
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, timeframe, open_time, open, high, low, close, volume) VALUES %s", s.table, strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *ClickHouseCandleStore) Recent(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	q := fmt.Sprintf("SELECT open_time, open, high, low, close, volume FROM %s WHERE symbol = ? AND timeframe = ? ORDER BY open_time DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, timeframe, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Candle
	for rows.Next() {
		var c models.Candle
		var openTime time.Time
		if err := rows.Scan(&openTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		c.TimestampMs = openTime.UnixMilli()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// DESC query, oldest-first result for ring insertion.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
