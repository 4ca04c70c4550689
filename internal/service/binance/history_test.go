package binance

import "testing"

func TestParseKlineRow(t *testing.T) {
	row := []interface{}{
		float64(1700000000000), "42000.0", "42200.5", "41900.25", "42100.75", "55.5",
		float64(1700000899999), "2337000.0",
	}
	c, err := parseKlineRow(row)
	if err != nil {
		t.Fatalf("parseKlineRow: %v", err)
	}
	if c.TimestampMs != 1700000000000 {
		t.Fatalf("timestamp = %d", c.TimestampMs)
	}
	if c.Open != 42000 || c.High != 42200.5 || c.Low != 41900.25 || c.Close != 42100.75 || c.Volume != 55.5 {
		t.Fatalf("unexpected candle %+v", c)
	}
}

func TestParseKlineRowErrors(t *testing.T) {
	if _, err := parseKlineRow([]interface{}{float64(1), "2", "3"}); err == nil {
		t.Fatalf("expected error for short row")
	}
	if _, err := parseKlineRow([]interface{}{"not-a-number", "1", "2", "3", "4", "5"}); err == nil {
		t.Fatalf("expected error for non-numeric open time")
	}
	if _, err := parseKlineRow([]interface{}{float64(1), "x", "2", "3", "4", "5"}); err == nil {
		t.Fatalf("expected error for bad price")
	}
}

func TestBuildStreamNames(t *testing.T) {
	got := buildStreamNames([]string{"BTCUSDT", "ETHUSDT"}, []string{"1m", "15m"})
	want := []string{
		"btcusdt@miniTicker", "btcusdt@kline_1m", "btcusdt@kline_15m",
		"ethusdt@miniTicker", "ethusdt@kline_1m", "ethusdt@kline_15m",
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("streams[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
