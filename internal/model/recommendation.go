package model

import "strings"

// Action is the recommended trade direction.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// ParseAction normalizes a free-form action. Anything unrecognised is HOLD.
func ParseAction(s string) Action {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionBuy:
		return ActionBuy
	case ActionSell:
		return ActionSell
	default:
		return ActionHold
	}
}

// Directional reports whether the action is BUY or SELL.
func (a Action) Directional() bool {
	return a == ActionBuy || a == ActionSell
}

// Recommendation is the structured output of the analysis engine.
type Recommendation struct {
	Action           Action    `json:"recommendation"`
	Confidence       float64   `json:"confidence"` // 0 ~ 100
	Summary          string    `json:"analysis"`
	Reasoning        string    `json:"reasoning"`
	SupportLevels    []float64 `json:"support_levels"`
	ResistanceLevels []float64 `json:"resistance_levels"`

	// Raw is the untouched model output, kept for audit.
	Raw string `json:"-"`
}
