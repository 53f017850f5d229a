package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"SwapSentinel/internal/model"

	"go.uber.org/zap"
)

func newTestSQLite(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func sampleAnalysis(action model.Action, confidence float64) *model.AnalysisRecord {
	return &model.AnalysisRecord{
		InstID:       "ETH-USDT-SWAP",
		CurrentPrice: 3500.5,
		Recommendation: model.Recommendation{
			Action:           action,
			Confidence:       confidence,
			Summary:          "summary",
			Reasoning:        "reasoning",
			SupportLevels:    []float64{3400, 3350.5},
			ResistanceLevels: []float64{3600},
		},
		MarketDataJSON: `{"instId":"ETH-USDT-SWAP"}`,
		RawResponse:    `{"recommendation":"BUY"}`,
	}
}

// recorders returns every implementation so behaviour is checked against both.
func recorders(t *testing.T) map[string]Recorder {
	return map[string]Recorder{
		"sqlite": newTestSQLite(t),
		"memory": NewMemoryRecorder(),
	}
}

func TestRecorder_SaveAndGet(t *testing.T) {
	for name, r := range recorders(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id1, err := r.SaveAnalysis(ctx, sampleAnalysis(model.ActionBuy, 85))
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			id2, err := r.SaveAnalysis(ctx, sampleAnalysis(model.ActionHold, 40))
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			if id2 <= id1 {
				t.Errorf("ids not increasing: %d then %d", id1, id2)
			}

			got, err := r.GetAnalysis(ctx, id1)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Recommendation.Action != model.ActionBuy || got.Recommendation.Confidence != 85 {
				t.Errorf("unexpected recommendation %+v", got.Recommendation)
			}
			if !reflect.DeepEqual(got.Recommendation.SupportLevels, []float64{3400, 3350.5}) {
				t.Errorf("support levels: %v", got.Recommendation.SupportLevels)
			}
			if got.AlertSent {
				t.Error("new record should not be marked sent")
			}
			if got.MarketDataJSON != `{"instId":"ETH-USDT-SWAP"}` {
				t.Errorf("market data not preserved: %q", got.MarketDataJSON)
			}
		})
	}
}

func TestRecorder_MarkSent(t *testing.T) {
	for name, r := range recorders(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := r.SaveAnalysis(ctx, sampleAnalysis(model.ActionSell, 90))
			if err != nil {
				t.Fatal(err)
			}
			if err := r.MarkSent(ctx, id); err != nil {
				t.Fatalf("mark sent: %v", err)
			}
			got, err := r.GetAnalysis(ctx, id)
			if err != nil {
				t.Fatal(err)
			}
			if !got.AlertSent {
				t.Error("expected alert sent")
			}
			if err := r.MarkSent(ctx, id+100); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestRecorder_GetMissing(t *testing.T) {
	for name, r := range recorders(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := r.GetAnalysis(context.Background(), 42); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestRecorder_Stats(t *testing.T) {
	for name, r := range recorders(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			old := sampleAnalysis(model.ActionBuy, 90)
			old.CreatedAt = time.Now().Add(-48 * time.Hour)
			for _, rec := range []*model.AnalysisRecord{
				old,
				sampleAnalysis(model.ActionBuy, 90),
				sampleAnalysis(model.ActionSell, 85),
				sampleAnalysis(model.ActionHold, 99),
				sampleAnalysis(model.ActionHold, 10),
			} {
				if _, err := r.SaveAnalysis(ctx, rec); err != nil {
					t.Fatal(err)
				}
			}
			for _, ok := range []bool{true, true, false} {
				if _, err := r.SaveEmailAlert(ctx, &model.AlertRecord{
					InstID:  "ETH-USDT-SWAP",
					Action:  model.ActionBuy,
					Message: "BUY - summary",
					Success: ok,
				}); err != nil {
					t.Fatal(err)
				}
			}

			s, err := r.Stats(ctx, time.Now().Add(-24*time.Hour))
			if err != nil {
				t.Fatal(err)
			}
			want := Stats{Analyses: 4, Buy: 1, Sell: 1, Hold: 2, AlertsSent: 2, AlertsFailed: 1}
			if *s != want {
				t.Errorf("expected %+v, got %+v", want, *s)
			}
		})
	}
}

func TestSQLiteRecorder_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	r, err := NewSQLiteRecorder(path, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	id, err := r.SaveAnalysis(context.Background(), sampleAnalysis(model.ActionBuy, 81))
	if err != nil {
		t.Fatal(err)
	}
	r.Close()

	r, err = NewSQLiteRecorder(path, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r.Close()
	if _, err := r.GetAnalysis(context.Background(), id); err != nil {
		t.Errorf("record lost after reopen: %v", err)
	}
}

func TestMemoryRecorder_SaveErr(t *testing.T) {
	m := NewMemoryRecorder()
	m.SaveErr = errors.New("disk full")
	if _, err := m.SaveAnalysis(context.Background(), sampleAnalysis(model.ActionBuy, 90)); err == nil {
		t.Fatal("expected error")
	}
	if len(m.Analyses()) != 0 {
		t.Error("nothing should be stored on failure")
	}
}
