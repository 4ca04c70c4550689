package usecase

import (
	"context"
	"testing"

	"StratCore/internal/domain/models"
	applogger "StratCore/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type nopMetrics struct{}

func (nopMetrics) RecordFrame(string)              {}
func (nopMetrics) RecordParseError(string)         {}
func (nopMetrics) RecordReconnect(string)          {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordSelection(string)          {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLatency(string, float64)   {}

type fakeOutcomeStore struct {
	outcomes  []models.TradeOutcome
	appendErr error
}

func (f *fakeOutcomeStore) Append(_ context.Context, o *models.TradeOutcome) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.outcomes = append(f.outcomes, *o)
	return nil
}

func (f *fakeOutcomeStore) RecentByStrategy(_ context.Context, userID, strategyID string, limit int) ([]models.TradeOutcome, error) {
	var out []models.TradeOutcome
	for i := len(f.outcomes) - 1; i >= 0 && len(out) < limit; i-- {
		o := f.outcomes[i]
		if o.UserID == userID && o.StrategyID == strategyID {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeSelectionStore struct {
	records []models.SelectionRecord
}

func (f *fakeSelectionStore) Append(_ context.Context, r *models.SelectionRecord) error {
	f.records = append(f.records, *r)
	return nil
}

func (f *fakeSelectionStore) Latest(_ context.Context, userID string) (*models.SelectionRecord, error) {
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].UserID == userID {
			r := f.records[i]
			return &r, nil
		}
	}
	return nil, nil
}

type fixedClassifier struct {
	snap models.RegimeSnapshot
}

func (f fixedClassifier) Classify() models.RegimeSnapshot { return f.snap }
