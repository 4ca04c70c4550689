package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"StratCore/internal/domain/models"
	applogger "StratCore/pkg/logger"

	"github.com/gorilla/websocket"
)

type nopMetrics struct{}

func (nopMetrics) RecordFrame(string)              {}
func (nopMetrics) RecordParseError(string)         {}
func (nopMetrics) RecordReconnect(string)          {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordSelection(string)          {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLatency(string, float64)   {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func noopHandler(context.Context, *models.StreamEvent) {}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestTransportStopSuppressesReconnect(t *testing.T) {
	var upgrader websocket.Upgrader
	var dials atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		dials.Add(1)
		// Drop every connection immediately so the client keeps retrying.
		_ = conn.Close()
	}))
	defer srv.Close()

	tr := New(Config{
		URL:               wsURL(srv),
		Symbols:           []string{"BTCUSDT"},
		Timeframes:        []string{"1m"},
		BaseDelay:         2 * time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		HeartbeatInterval: time.Hour,
	}, testLogger(t), nopMetrics{})

	if err := tr.Start(context.Background(), noopHandler); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return dials.Load() >= 2 }, "transport never reconnected")

	if err := tr.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	n := dials.Load()
	time.Sleep(50 * time.Millisecond)
	if got := dials.Load(); got != n {
		t.Fatalf("connections opened after Stop: %d -> %d", n, got)
	}
	if tr.IsConnected() {
		t.Fatal("IsConnected after Stop")
	}
}

func TestTransportBackoffResetsOnStableConnection(t *testing.T) {
	var upgrader websocket.Upgrader
	var dials atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if dials.Add(1) <= 2 {
			_ = conn.Close()
			return
		}
		// Third connection stays up but stays silent until released; no
		// reads means no pongs, so the client cannot count it stable yet.
		<-release
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	tr := New(Config{
		URL:               wsURL(srv),
		Symbols:           []string{"BTCUSDT"},
		Timeframes:        []string{"1m"},
		BaseDelay:         time.Millisecond,
		MaxDelay:          4 * time.Millisecond,
		HeartbeatInterval: 20 * time.Millisecond,
		PongTimeout:       time.Second,
	}, testLogger(t), nopMetrics{})

	if err := tr.Start(context.Background(), noopHandler); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = tr.Stop() }()

	waitFor(t, 2*time.Second, func() bool { return dials.Load() >= 3 }, "third connection never arrived")

	tr.mu.Lock()
	cs := tr.conns[0]
	tr.mu.Unlock()
	waitFor(t, 2*time.Second, func() bool { return cs.currentAttempt() == 2 },
		"two failures should leave the attempt counter at 2")

	// Let the server answer pings; the first pong resets backoff.
	close(release)
	waitFor(t, 2*time.Second, func() bool { return cs.currentAttempt() == 0 },
		"attempt counter never reset after a surviving heartbeat")
}

func TestTransportObserverReceivesEvents(t *testing.T) {
	frame := `{"stream":"btcusdt@miniTicker","data":{"e":"24hrMiniTicker","E":1,"s":"BTCUSDT","c":"100","o":"90","h":"110","l":"80","v":"1","q":"1"}}`

	var upgrader websocket.Upgrader
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(frame))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	tr := New(Config{
		URL:               wsURL(srv),
		Symbols:           []string{"BTCUSDT"},
		Timeframes:        []string{"1m"},
		HeartbeatInterval: time.Hour,
	}, testLogger(t), nopMetrics{})

	handled := make(chan *models.StreamEvent, 1)
	observed := make(chan *models.StreamEvent, 1)
	tr.AddObserver(func(_ context.Context, ev *models.StreamEvent) {
		select {
		case observed <- ev:
		default:
		}
	})
	if err := tr.Start(context.Background(), func(_ context.Context, ev *models.StreamEvent) {
		select {
		case handled <- ev:
		default:
		}
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = tr.Stop() }()

	select {
	case ev := <-handled:
		if ev.Kind != models.EventTick || ev.Tick.Symbol != "BTCUSDT" {
			t.Fatalf("handler got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never received the frame")
	}
	select {
	case ev := <-observed:
		if ev.Kind != models.EventTick || ev.Tick.Price != 100 {
			t.Fatalf("observer got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("observer never received the frame")
	}
}
