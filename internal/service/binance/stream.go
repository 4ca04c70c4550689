package binance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	drepo "StratCore/internal/domain/repository"
	applogger "StratCore/pkg/logger"

	"github.com/gorilla/websocket"
)

// Config holds streaming endpoint configuration.
type Config struct {
	URL               string // e.g. wss://stream.binance.com:9443
	Symbols           []string
	Timeframes        []string
	MaxStreamsPerConn int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	HeartbeatInterval time.Duration
	PongTimeout       time.Duration
}

// connState tracks the lifecycle of one multiplexed connection. Each
// connection owns its own reconnect attempt counter; no ambient globals.
type connState struct {
	id      string
	streams []string

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	attempt   int
}

// nextAttempt returns the current attempt number and bumps the counter.
func (cs *connState) nextAttempt() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	a := cs.attempt
	cs.attempt++
	return a
}

// resetAttempt clears the backoff counter, but only while conn is still
// the live connection; a pong racing a reconnect must not collapse the
// next delay back to base.
func (cs *connState) resetAttempt(conn *websocket.Conn) {
	cs.mu.Lock()
	if cs.conn == conn {
		cs.attempt = 0
	}
	cs.mu.Unlock()
}

func (cs *connState) currentAttempt() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.attempt
}

// Transport implements drepo.MarketStream over one or more combined-stream
// WebSocket connections.
type Transport struct {
	cfg     Config
	logger  *applogger.Logger
	metrics drepo.Metrics

	mu           sync.Mutex
	conns        []*connState
	observers    []drepo.EventHandler
	shuttingDown bool
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// New creates a Binance market stream transport.
func New(cfg Config, l *applogger.Logger, m drepo.Metrics) *Transport {
	if cfg.MaxStreamsPerConn <= 0 {
		cfg.MaxStreamsPerConn = 100
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 10 * time.Second
	}
	return &Transport{cfg: cfg, logger: l, metrics: m}
}

// AddObserver registers a local push observer. Observers receive every
// decoded event, including provisional candles.
func (t *Transport) AddObserver(fn drepo.EventHandler) {
	t.mu.Lock()
	t.observers = append(t.observers, fn)
	t.mu.Unlock()
}

// Start opens the connections and begins delivering events to handler.
func (t *Transport) Start(ctx context.Context, handler drepo.EventHandler) error {
	streams := buildStreamNames(t.cfg.Symbols, t.cfg.Timeframes)
	if len(streams) == 0 {
		return fmt.Errorf("no streams to subscribe")
	}

	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	if t.shuttingDown {
		t.mu.Unlock()
		cancel()
		return fmt.Errorf("transport is stopped")
	}
	t.cancel = cancel
	for i := 0; i < len(streams); i += t.cfg.MaxStreamsPerConn {
		end := i + t.cfg.MaxStreamsPerConn
		if end > len(streams) {
			end = len(streams)
		}
		cs := &connState{
			id:      fmt.Sprintf("conn-%d", len(t.conns)),
			streams: streams[i:end],
		}
		t.conns = append(t.conns, cs)
	}
	conns := t.conns
	t.mu.Unlock()

	for _, cs := range conns {
		t.wg.Add(1)
		go t.supervise(ctx, cs, handler)
	}

	t.logger.Info("stream transport started",
		applogger.Int("connections", len(conns)),
		applogger.Int("streams", len(streams)))
	return nil
}

// Stop suppresses reconnects, closes all connections, and waits for the
// connection tasks to exit. Intentional close never spawns a reconnect.
func (t *Transport) Stop() error {
	t.mu.Lock()
	t.shuttingDown = true
	cancel := t.cancel
	conns := t.conns
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, cs := range conns {
		cs.close()
	}
	t.wg.Wait()
	t.logger.Info("stream transport stopped")
	return nil
}

// IsConnected reports whether any connection is currently open.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, cs := range t.conns {
		cs.mu.Lock()
		up := cs.connected
		cs.mu.Unlock()
		if up {
			return true
		}
	}
	return false
}

func (t *Transport) isShuttingDown() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shuttingDown
}

// supervise runs the connect/read/reconnect loop for one connection.
// Connection failures are retried indefinitely with bounded backoff; they
// are never fatal to the hosting process.
func (t *Transport) supervise(ctx context.Context, cs *connState, handler drepo.EventHandler) {
	defer t.wg.Done()
	for {
		if ctx.Err() != nil || t.isShuttingDown() {
			return
		}

		err := t.runConn(ctx, cs, handler)
		if ctx.Err() != nil || t.isShuttingDown() {
			return
		}

		attempt := cs.nextAttempt()
		delay := NextDelay(attempt, t.cfg.BaseDelay, t.cfg.MaxDelay)
		t.metrics.RecordReconnect(cs.id)
		t.logger.Warn("stream connection lost, reconnecting",
			applogger.String("conn", cs.id),
			applogger.Error(err),
			applogger.Int("attempt", attempt+1),
			applogger.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// runConn dials, heartbeats, and reads frames until the connection dies.
func (t *Transport) runConn(ctx context.Context, cs *connState, handler drepo.EventHandler) error {
	url := t.cfg.URL + "/stream?streams=" + strings.Join(cs.streams, "/")
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	cs.mu.Lock()
	cs.conn = conn
	cs.connected = true
	cs.mu.Unlock()
	defer cs.close()

	t.logger.Info("stream connected",
		applogger.String("conn", cs.id),
		applogger.Int("streams", len(cs.streams)))

	readWindow := t.cfg.HeartbeatInterval + t.cfg.PongTimeout
	_ = conn.SetReadDeadline(time.Now().Add(readWindow))
	stable := false
	conn.SetPongHandler(func(string) error {
		// Pongs are dispatched from the read loop. The first one proves
		// the connection survived a full heartbeat round trip, and only
		// then does the backoff counter reset.
		if !stable {
			stable = true
			cs.resetAttempt(conn)
		}
		return conn.SetReadDeadline(time.Now().Add(readWindow))
	})

	// Heartbeat: ping on a ticker. A missed pong lets the read deadline
	// fire, which surfaces as a read error and takes the reconnect path.
	hbCtx, hbCancel := context.WithCancel(ctx)
	defer hbCancel()
	go func() {
		ticker := time.NewTicker(t.cfg.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				cs.mu.Lock()
				c := cs.conn
				cs.mu.Unlock()
				if c == nil {
					return
				}
				_ = c.SetWriteDeadline(time.Now().Add(t.cfg.PongTimeout))
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		t.metrics.RecordFrame(cs.id)

		ev, err := ParseFrame(raw)
		if err != nil {
			// A single bad frame must not terminate the connection.
			t.metrics.RecordParseError(cs.id)
			t.logger.Warn("dropping malformed frame",
				applogger.String("conn", cs.id),
				applogger.Error(err))
			continue
		}

		handler(ctx, ev)
		t.mu.Lock()
		observers := t.observers
		t.mu.Unlock()
		for _, fn := range observers {
			fn(ctx, ev)
		}
	}
}

func (cs *connState) close() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.conn != nil {
		_ = cs.conn.Close()
		cs.conn = nil
	}
	cs.connected = false
}

// buildStreamNames expands the symbol universe into combined-stream names:
// one miniTicker stream per symbol plus one kline stream per (symbol, tf).
func buildStreamNames(symbols, timeframes []string) []string {
	out := make([]string, 0, len(symbols)*(1+len(timeframes)))
	for _, s := range symbols {
		lower := strings.ToLower(s)
		out = append(out, lower+"@miniTicker")
		for _, tf := range timeframes {
			out = append(out, lower+"@kline_"+tf)
		}
	}
	return out
}
