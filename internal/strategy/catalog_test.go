package strategy

import (
	"math"
	"testing"

	"StratCore/internal/domain/models"
)

func snap(r models.Regime, t models.Trend) models.RegimeSnapshot {
	return models.RegimeSnapshot{Regime: r, BTCTrend: t}
}

func TestRegimeScoreSuitable(t *testing.T) {
	spec, ok := Lookup(GridTrading)
	if !ok {
		t.Fatalf("grid_trading missing from catalog")
	}
	if got := RegimeScore(spec, snap(models.RegimeRanging, models.TrendNeutral)); got != 1.0 {
		t.Fatalf("suitable regime score = %v, want 1.0", got)
	}
	if got := RegimeScore(spec, snap(models.RegimeVolatile, models.TrendNeutral)); got != 0.2 {
		t.Fatalf("unsuitable regime score = %v, want floor 0.2", got)
	}
}

func TestBearishTrendOverrides(t *testing.T) {
	s := snap(models.RegimeTrending, models.TrendBearish)

	rsi, _ := Lookup(RSIReversal)
	if got := RegimeScore(rsi, s); got != 1.0 {
		t.Fatalf("rsi_reversal in bearish trend = %v, want 1.0", got)
	}
	tf, _ := Lookup(TrendFollow)
	if got := RegimeScore(tf, s); got != 0.3 {
		t.Fatalf("trend_follow in bearish trend = %v, want 0.3", got)
	}
}

func TestOverrideOnlyFiresInTrendingRegime(t *testing.T) {
	rsi, _ := Lookup(RSIReversal)
	if got := RegimeScore(rsi, snap(models.RegimeRanging, models.TrendBearish)); got != 1.0 {
		t.Fatalf("ranging suits rsi_reversal regardless of trend, got %v", got)
	}
	if got := RegimeScore(rsi, snap(models.RegimeVolatile, models.TrendBullish)); got != 1.0 {
		t.Fatalf("volatile suits rsi_reversal regardless of trend, got %v", got)
	}
}

func TestTotalScoreWeights(t *testing.T) {
	if RegimeWeight+WinRateWeight != 1.0 {
		t.Fatalf("weights must sum to 1.0")
	}
	for _, rs := range []float64{0, 0.2, 0.3, 0.5, 1.0} {
		for _, ws := range []float64{0, 0.25, 0.5, 0.75, 1.0} {
			want := rs*0.7 + ws*0.3
			if got := TotalScore(rs, ws); math.Abs(got-want) > 1e-12 {
				t.Fatalf("TotalScore(%v,%v) = %v, want %v", rs, ws, got, want)
			}
		}
	}
}

func TestCatalogOrderStable(t *testing.T) {
	want := []ID{RSIReversal, TrendFollow, MACross, GridTrading, Breakout}
	got := Catalog()
	if len(got) != len(want) {
		t.Fatalf("catalog size = %d, want %d", len(got), len(want))
	}
	for i, s := range got {
		if s.ID != want[i] {
			t.Fatalf("catalog[%d] = %s, want %s", i, s.ID, want[i])
		}
	}
}
