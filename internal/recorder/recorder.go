package recorder

import (
	"context"
	"errors"
	"time"

	"SwapSentinel/internal/model"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// Stats are store-side totals over a time window.
type Stats struct {
	Analyses     int
	Buy          int
	Sell         int
	Hold         int
	AlertsSent   int
	AlertsFailed int
}

// Recorder persists analyses and alert attempts. Both tables are
// append-only apart from the alert-sent flag set by MarkSent.
type Recorder interface {
	SaveAnalysis(ctx context.Context, rec *model.AnalysisRecord) (int64, error)
	SaveEmailAlert(ctx context.Context, alert *model.AlertRecord) (int64, error)
	MarkSent(ctx context.Context, id int64) error
	GetAnalysis(ctx context.Context, id int64) (*model.AnalysisRecord, error)
	Stats(ctx context.Context, since time.Time) (*Stats, error)
	Close() error
}

func (s *Stats) count(action model.Action, n int) {
	s.Analyses += n
	switch action {
	case model.ActionBuy:
		s.Buy += n
	case model.ActionSell:
		s.Sell += n
	default:
		s.Hold += n
	}
}
