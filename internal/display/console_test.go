package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"SwapSentinel/internal/cycle"
	"SwapSentinel/internal/model"
	"SwapSentinel/internal/policy"
)

func newTestConsole() (*Console, *bytes.Buffer) {
	var buf bytes.Buffer
	c := New(&buf, "ETH-USDT-SWAP", policy.Thresholds{Confidence: 80})
	c.now = func() time.Time { return time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC) }
	return c, &buf
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 4, "this..."},
		{"价格突破阻力位", 4, "价格突破..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestCycleCompleted_HighConfidenceBanner(t *testing.T) {
	tests := []struct {
		name       string
		action     model.Action
		confidence float64
		banner     bool
	}{
		{"above threshold", model.ActionBuy, 85, true},
		{"equal to threshold", model.ActionSell, 80, true},
		{"below threshold", model.ActionBuy, 79.9, false},
		{"hold above threshold", model.ActionHold, 90, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, buf := newTestConsole()
			c.CycleCompleted(&model.AnalysisRecord{
				InstID:       "ETH-USDT-SWAP",
				CurrentPrice: 3500.456,
				Recommendation: model.Recommendation{
					Action:     tt.action,
					Confidence: tt.confidence,
					Summary:    "summary",
				},
			})
			out := buf.String()
			if got := strings.Contains(out, "High confidence"); got != tt.banner {
				t.Errorf("banner shown=%v, want %v:\n%s", got, tt.banner, out)
			}
			for _, want := range []string{"3500.46 USDT", string(tt.action), "2024-03-04 05:06:07"} {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q", want)
				}
			}
		})
	}
}

func TestCycleCompleted_TruncatesSummary(t *testing.T) {
	c, buf := newTestConsole()
	c.box = c.box.Width(0)
	long := strings.Repeat("x", 150)
	c.CycleCompleted(&model.AnalysisRecord{Recommendation: model.Recommendation{Action: model.ActionHold, Summary: long}})
	out := buf.String()
	if strings.Contains(out, strings.Repeat("x", 101)) {
		t.Error("summary should be cut at 100 characters")
	}
	if !strings.Contains(out, strings.Repeat("x", 100)+"...") {
		t.Error("expected truncated summary with ellipsis")
	}
}

func TestCycleFailed(t *testing.T) {
	c, buf := newTestConsole()
	c.CycleFailed(&cycle.Error{Stage: cycle.StageFetch, Err: errors.New("timeout")})
	if !strings.Contains(buf.String(), "failed at FETCH: timeout") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestStopped(t *testing.T) {
	c, buf := newTestConsole()
	c.Stopped(model.Counters{TotalCycles: 12, FailedCycles: 2, AlertsSent: 3})
	out := buf.String()
	for _, want := range []string{"Total analyses: 12", "Failed cycles: 2", "Alerts sent: 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
