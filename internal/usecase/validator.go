package usecase

import (
	"fmt"
	"math"

	"StratCore/internal/domain/models"
	drepo "StratCore/internal/domain/repository"
	"StratCore/internal/service/marketcache"
	"StratCore/internal/services/analytics"
	applogger "StratCore/pkg/logger"
)

// Strategy families accepted by the validator.
const (
	FamilyOscillator = "oscillator"
	FamilyGrid       = "grid"
	FamilyMACross    = "ma_cross"
)

const (
	validationReplayWindow = 200
	minValidationCandles   = 50

	// Daily signal-rate comfort bounds. Outside them the parameters are
	// flagged as over- or under-trading.
	maxSignalsPerDay = 10.0
	minSignalsPerDay = 0.5
)

// Historically plausible oscillator threshold bands.
const (
	oversoldBandLow    = 10.0
	oversoldBandHigh   = 45.0
	overboughtBandLow  = 55.0
	overboughtBandHigh = 90.0
)

// ParameterValidator replays recent candles against proposed strategy
// parameters and reports how often they would have fired. The report is
// advisory text for display; it never blocks activation by itself.
type ParameterValidator struct {
	cache  *marketcache.Cache
	logger *applogger.Logger
}

func NewParameterValidator(cache *marketcache.Cache, logger *applogger.Logger) *ParameterValidator {
	return &ParameterValidator{cache: cache, logger: logger}
}

// Validate replays up to 200 recent candles for (symbol, timeframe) against
// params. Fewer than 50 candles short-circuits to an invalid "insufficient
// data" report instead of a statistically meaningless estimate.
func (v *ParameterValidator) Validate(family, symbol, timeframe string, params map[string]float64) *models.ValidationReport {
	tf := drepo.NormalizeTimeframe(timeframe)
	candles := v.cache.GetCandles(symbol, string(tf), validationReplayWindow)
	if len(candles) < minValidationCandles {
		return &models.ValidationReport{
			Valid:    false,
			Warnings: []string{fmt.Sprintf("insufficient data: %d candles available, %d required", len(candles), minValidationCandles)},
		}
	}

	var report *models.ValidationReport
	switch family {
	case FamilyOscillator:
		report = validateOscillator(candles, tf, params)
	case FamilyGrid:
		report = validateGrid(candles, tf, params)
	case FamilyMACross:
		report = validateMACross(candles, tf, params)
	default:
		report = &models.ValidationReport{
			Valid:    false,
			Warnings: []string{fmt.Sprintf("unknown strategy family %q", family)},
		}
	}

	report.Valid = len(report.Warnings) == 0
	report.Metrics.ParameterScore = parameterScore(report)
	v.logger.Debug("parameters validated",
		applogger.String("family", family),
		applogger.String("symbol", symbol),
		applogger.Bool("valid", report.Valid),
		applogger.Int("warnings", len(report.Warnings)))
	return report
}

func validateOscillator(candles []models.Candle, tf drepo.Timeframe, params map[string]float64) *models.ValidationReport {
	report := &models.ValidationReport{}
	period := int(paramOr(params, "period", 14))
	oversold := paramOr(params, "oversold", 30)
	overbought := paramOr(params, "overbought", 70)

	if period < 2 || period > 100 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("period %d is outside the usable range [2, 100]", period))
		report.Suggestions = append(report.Suggestions, "use period 14, the common default")
		period = 14
	}
	if oversold >= overbought {
		report.Warnings = append(report.Warnings, fmt.Sprintf("oversold %.0f must be below overbought %.0f", oversold, overbought))
		report.Suggestions = append(report.Suggestions, "use oversold 30 / overbought 70")
		return report
	}
	if oversold < oversoldBandLow || oversold > oversoldBandHigh {
		report.Warnings = append(report.Warnings, fmt.Sprintf("oversold %.0f is outside the historically plausible band [%.0f, %.0f]", oversold, oversoldBandLow, oversoldBandHigh))
		report.Suggestions = append(report.Suggestions, "try oversold 30")
	}
	if overbought < overboughtBandLow || overbought > overboughtBandHigh {
		report.Warnings = append(report.Warnings, fmt.Sprintf("overbought %.0f is outside the historically plausible band [%.0f, %.0f]", overbought, overboughtBandLow, overboughtBandHigh))
		report.Suggestions = append(report.Suggestions, "try overbought 70")
	}

	rsi := analytics.RSI(candles, period)
	triggers := 0
	for _, r := range rsi {
		if math.IsNaN(r) {
			continue
		}
		if r <= oversold || r >= overbought {
			triggers++
		}
	}
	rate := signalsPerDay(triggers, len(candles), tf)
	report.Metrics.EstimatedSignalsPerDay = rate
	appendRateWarnings(report, rate)
	return report
}

func validateGrid(candles []models.Candle, tf drepo.Timeframe, params map[string]float64) *models.ValidationReport {
	report := &models.ValidationReport{}
	levels := int(paramOr(params, "levels", 10))
	upper := paramOr(params, "upper_price", 0)
	lower := paramOr(params, "lower_price", 0)

	if levels < 2 || levels > 100 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("grid levels %d is outside the usable range [2, 100]", levels))
		report.Suggestions = append(report.Suggestions, "use 10 to 30 levels")
		return report
	}
	if lower <= 0 || upper <= lower {
		report.Warnings = append(report.Warnings, fmt.Sprintf("grid range [%.4f, %.4f] is not a valid positive interval", lower, upper))
		return report
	}

	last := candles[len(candles)-1].Close
	if last < lower || last > upper {
		report.Warnings = append(report.Warnings, fmt.Sprintf("current price %.4f is outside the grid range [%.4f, %.4f]", last, lower, upper))
	}

	spacing := (upper - lower) / float64(levels)
	barRangeSum := 0.0
	triggers := 0
	for _, c := range candles {
		barRange := c.High - c.Low
		barRangeSum += barRange
		if barRange >= spacing {
			triggers++
		}
	}
	avgBarRange := barRangeSum / float64(len(candles))
	ratio := 0.0
	if spacing > 0 {
		ratio = avgBarRange / spacing
	}
	report.Metrics.VolatilityRatio = ratio

	if ratio < 0.5 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("grid spacing is wide relative to recent volatility (ratio %.2f); levels will rarely fill", ratio))
		report.Suggestions = append(report.Suggestions, "narrow the range or add levels")
	} else if ratio > 5 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("grid spacing is tight relative to recent volatility (ratio %.2f); expect constant churn", ratio))
		report.Suggestions = append(report.Suggestions, "widen the range or reduce levels")
	}

	rate := signalsPerDay(triggers, len(candles), tf)
	report.Metrics.EstimatedSignalsPerDay = rate
	appendRateWarnings(report, rate)
	return report
}

func validateMACross(candles []models.Candle, tf drepo.Timeframe, params map[string]float64) *models.ValidationReport {
	report := &models.ValidationReport{}
	fast := int(paramOr(params, "fast_period", 10))
	slow := int(paramOr(params, "slow_period", 30))

	if fast < 2 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("fast period %d is too short to smooth anything", fast))
		report.Suggestions = append(report.Suggestions, "use a fast period of at least 5")
		return report
	}
	if fast >= slow {
		report.Warnings = append(report.Warnings, fmt.Sprintf("fast period %d must be below slow period %d", fast, slow))
		report.Suggestions = append(report.Suggestions, "use fast 10 / slow 30")
		return report
	}
	if slow > validationReplayWindow {
		report.Warnings = append(report.Warnings, fmt.Sprintf("slow period %d exceeds the %d-candle replay window", slow, validationReplayWindow))
		return report
	}

	fastSMA := analytics.SMASeries(candles, fast)
	slowSMA := analytics.SMASeries(candles, slow)
	triggers := 0
	prevSign := 0
	for i := range candles {
		if math.IsNaN(fastSMA[i]) || math.IsNaN(slowSMA[i]) {
			continue
		}
		sign := 0
		if fastSMA[i] > slowSMA[i] {
			sign = 1
		} else if fastSMA[i] < slowSMA[i] {
			sign = -1
		}
		if prevSign != 0 && sign != 0 && sign != prevSign {
			triggers++
		}
		if sign != 0 {
			prevSign = sign
		}
	}
	rate := signalsPerDay(triggers, len(candles), tf)
	report.Metrics.EstimatedSignalsPerDay = rate
	appendRateWarnings(report, rate)
	return report
}

// signalsPerDay converts a trigger count over candleCount bars into a daily
// rate using the timeframe's bar duration.
func signalsPerDay(triggers, candleCount int, tf drepo.Timeframe) float64 {
	if candleCount == 0 {
		return 0
	}
	days := float64(candleCount) * tf.Duration().Hours() / 24
	if days <= 0 {
		return 0
	}
	return float64(triggers) / days
}

func appendRateWarnings(report *models.ValidationReport, rate float64) {
	if rate > maxSignalsPerDay {
		report.Warnings = append(report.Warnings, fmt.Sprintf("estimated %.1f signals/day exceeds the %.0f/day over-trading bound", rate, maxSignalsPerDay))
		report.Suggestions = append(report.Suggestions, "tighten the trigger thresholds to reduce signal frequency")
	} else if rate < minSignalsPerDay {
		report.Warnings = append(report.Warnings, fmt.Sprintf("estimated %.2f signals/day is below the %.1f/day under-trading bound", rate, minSignalsPerDay))
		report.Suggestions = append(report.Suggestions, "loosen the trigger thresholds to trade more often")
	}
}

// parameterScore grades the replay result 0-100 from the warning and
// suggestion counts.
func parameterScore(report *models.ValidationReport) int {
	score := 100 - 30*len(report.Warnings) - 5*len(report.Suggestions)
	if score < 0 {
		score = 0
	}
	return score
}

func paramOr(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}
