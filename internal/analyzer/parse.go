package analyzer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"SwapSentinel/internal/model"
)

const unknownField = "unknown"

// Parse extracts a recommendation from model output. The JSON object is taken
// from the first '{' to the last '}'. Parse is deterministic and never fails.
func Parse(content string) *model.Recommendation {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < 0 {
		return &model.Recommendation{
			Action:     model.ActionHold,
			Confidence: 50,
			Summary:    content,
			Reasoning:  content,
			Raw:        content,
		}
	}
	if end < start {
		return parseFailed(content, fmt.Errorf("no JSON object between braces"))
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(content[start:end+1]), &fields); err != nil {
		return parseFailed(content, err)
	}

	rec := &model.Recommendation{
		Action:           model.ActionHold,
		Summary:          text(fields["analysis"]),
		Reasoning:        text(fields["reasoning"]),
		Confidence:       confidence(fields["confidence"]),
		SupportLevels:    levels(fields["support_levels"]),
		ResistanceLevels: levels(fields["resistance_levels"]),
		Raw:              content,
	}
	if s, ok := fields["recommendation"].(string); ok {
		rec.Action = model.ParseAction(s)
	}
	return rec
}

// failed is the result when no model output was obtained. Raw holds the
// fallback itself in the model's JSON shape so the stored row stays auditable.
func failed(err error) *model.Recommendation {
	rec := &model.Recommendation{
		Action:    model.ActionHold,
		Summary:   "analysis failed",
		Reasoning: fmt.Sprintf("analysis error: %v", err),
	}
	raw, mErr := json.Marshal(struct {
		Analysis       string  `json:"analysis"`
		Recommendation string  `json:"recommendation"`
		Confidence     float64 `json:"confidence"`
		Reasoning      string  `json:"reasoning"`
	}{rec.Summary, string(rec.Action), rec.Confidence, rec.Reasoning})
	if mErr == nil {
		rec.Raw = string(raw)
	}
	return rec
}

func parseFailed(content string, err error) *model.Recommendation {
	return &model.Recommendation{
		Action:    model.ActionHold,
		Summary:   "parse failed",
		Reasoning: fmt.Sprintf("parse failed: %v", err),
		Raw:       content,
	}
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return unknownField
	case string:
		return s
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return unknownField
		}
		return string(b)
	}
}

func confidence(v any) float64 {
	f, ok := number(v)
	if !ok || math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(100, f))
}

func levels(v any) []float64 {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(items))
	for _, it := range items {
		if f, ok := number(it); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			out = append(out, f)
		}
	}
	return out
}

// number accepts JSON numbers and numeric strings, with an optional trailing %.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(n), "%")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
