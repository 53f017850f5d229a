package policy

import "SwapSentinel/internal/model"

// Thresholds carries the per-run alerting parameters.
type Thresholds struct {
	Confidence float64 // 0 ~ 100
}

// ShouldAlert reports whether a recommendation warrants a notification. Only
// directional actions alert; HOLD never does, whatever its confidence.
func ShouldAlert(rec model.Recommendation, th Thresholds) bool {
	return rec.Action.Directional() && IsHighConfidence(rec.Confidence, th)
}

// IsHighConfidence is the comparison shared by alerting and the console
// banner. A confidence equal to the threshold counts.
func IsHighConfidence(confidence float64, th Thresholds) bool {
	return confidence >= th.Confidence
}
