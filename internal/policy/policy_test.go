package policy

import (
	"testing"

	"SwapSentinel/internal/model"
)

func TestShouldAlert(t *testing.T) {
	th := Thresholds{Confidence: 80}
	tests := []struct {
		action     model.Action
		confidence float64
		want       bool
	}{
		{model.ActionBuy, 85, true},
		{model.ActionSell, 80, true},
		{model.ActionBuy, 80, true},
		{model.ActionSell, 79.9, false},
		{model.ActionBuy, 0, false},
		{model.ActionHold, 100, false},
		{model.ActionHold, 80, false},
	}
	for _, tt := range tests {
		rec := model.Recommendation{Action: tt.action, Confidence: tt.confidence}
		if got := ShouldAlert(rec, th); got != tt.want {
			t.Errorf("ShouldAlert(%s, %.1f) = %v, want %v", tt.action, tt.confidence, got, tt.want)
		}
	}
}

func TestIsHighConfidence_SharesBoundary(t *testing.T) {
	th := Thresholds{Confidence: 80}
	if !IsHighConfidence(80, th) {
		t.Error("confidence equal to threshold should count as high")
	}
	if IsHighConfidence(79.99, th) {
		t.Error("confidence below threshold should not count as high")
	}
}
