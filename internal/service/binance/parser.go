package binance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"StratCore/internal/domain/models"
)

// Frame shapes for the combined-stream endpoint. All numeric fields arrive
// as strings on the wire.

type combinedFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type miniTickerFrame struct {
	// EventType must bind "e" exactly; without it encoding/json
	// case-folds "e":"24hrMiniTicker" onto the int64 "E" field and the
	// whole frame fails to decode.
	EventType   string `json:"e"`
	Symbol      string `json:"s"`
	Close       string `json:"c"`
	Open        string `json:"o"`
	High        string `json:"h"`
	Low         string `json:"l"`
	BaseVolume  string `json:"v"`
	QuoteVolume string `json:"q"`
	EventTimeMs int64  `json:"E"`
}

type klineFrame struct {
	Symbol string       `json:"s"`
	Kline  klinePayload `json:"k"`
}

type klinePayload struct {
	OpenTimeMs  int64  `json:"t"`
	CloseTimeMs int64  `json:"T"`
	Interval    string `json:"i"`
	Open        string `json:"o"`
	Close       string `json:"c"`
	High        string `json:"h"`
	Low         string `json:"l"`
	Volume      string `json:"v"`
	Trades      int64  `json:"n"`
	IsFinal     bool   `json:"x"`
	QuoteVolume string `json:"q"`
}

// ParseFrame decodes one combined-stream frame into a typed event.
// It is a pure transform: no I/O, no retries. A parse failure produces no
// event; the caller decides how to log it.
func ParseFrame(raw []byte) (*models.StreamEvent, error) {
	var frame combinedFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if frame.Stream == "" || len(frame.Data) == 0 {
		return nil, fmt.Errorf("empty stream or data")
	}

	switch {
	case frame.Stream == "!miniTicker@arr":
		var arr []miniTickerFrame
		if err := json.Unmarshal(frame.Data, &arr); err != nil {
			return nil, fmt.Errorf("decode ticker array: %w", err)
		}
		ticks := make([]models.PriceTick, 0, len(arr))
		for _, mt := range arr {
			t, err := mt.toTick()
			if err != nil {
				return nil, fmt.Errorf("ticker %s: %w", mt.Symbol, err)
			}
			ticks = append(ticks, *t)
		}
		return &models.StreamEvent{Kind: models.EventTickBatch, Ticks: ticks}, nil

	case strings.HasSuffix(frame.Stream, "@miniTicker"):
		var mt miniTickerFrame
		if err := json.Unmarshal(frame.Data, &mt); err != nil {
			return nil, fmt.Errorf("decode ticker: %w", err)
		}
		t, err := mt.toTick()
		if err != nil {
			return nil, fmt.Errorf("ticker %s: %w", mt.Symbol, err)
		}
		return &models.StreamEvent{Kind: models.EventTick, Tick: t, Symbol: t.Symbol}, nil

	case strings.Contains(frame.Stream, "@kline_"):
		var kf klineFrame
		if err := json.Unmarshal(frame.Data, &kf); err != nil {
			return nil, fmt.Errorf("decode kline: %w", err)
		}
		return kf.toEvent()

	default:
		return nil, fmt.Errorf("unknown stream %q", frame.Stream)
	}
}

func (mt miniTickerFrame) toTick() (*models.PriceTick, error) {
	if mt.Symbol == "" {
		return nil, fmt.Errorf("missing symbol")
	}
	closePx, err := parsePrice("close", mt.Close)
	if err != nil {
		return nil, err
	}
	openPx, err := parsePrice("open", mt.Open)
	if err != nil {
		return nil, err
	}
	high, err := parsePrice("high", mt.High)
	if err != nil {
		return nil, err
	}
	low, err := parsePrice("low", mt.Low)
	if err != nil {
		return nil, err
	}
	quoteVol, err := parsePrice("quote_volume", mt.QuoteVolume)
	if err != nil {
		return nil, err
	}

	// Guard divide-by-zero: a zero open yields 0%, never NaN/Inf.
	change := 0.0
	if openPx > 0 {
		change = (closePx - openPx) / openPx * 100
	}

	return &models.PriceTick{
		Symbol:      mt.Symbol,
		Price:       closePx,
		Change24h:   change,
		QuoteVolume: quoteVol,
		High24h:     high,
		Low24h:      low,
		EventTimeMs: mt.EventTimeMs,
		Source:      "binance",
	}, nil
}

func (kf klineFrame) toEvent() (*models.StreamEvent, error) {
	if kf.Symbol == "" {
		return nil, fmt.Errorf("missing symbol")
	}
	k := kf.Kline
	open, err := parsePrice("open", k.Open)
	if err != nil {
		return nil, err
	}
	closePx, err := parsePrice("close", k.Close)
	if err != nil {
		return nil, err
	}
	high, err := parsePrice("high", k.High)
	if err != nil {
		return nil, err
	}
	low, err := parsePrice("low", k.Low)
	if err != nil {
		return nil, err
	}
	vol, err := parsePrice("volume", k.Volume)
	if err != nil {
		return nil, err
	}

	return &models.StreamEvent{
		Kind:      models.EventCandle,
		Symbol:    kf.Symbol,
		Timeframe: k.Interval,
		IsFinal:   k.IsFinal,
		Candle: &models.Candle{
			TimestampMs: k.OpenTimeMs,
			Open:        open,
			High:        high,
			Low:         low,
			Close:       closePx,
			Volume:      vol,
		},
	}, nil
}

func parsePrice(field, s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing %s", field)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return v, nil
}
