package notifier

import (
	"context"
	"fmt"

	"SwapSentinel/internal/model"

	"go.uber.org/zap"
)

// Notifier dispatches an alert for an analysis. Send reports success and
// never panics past its boundary.
type Notifier interface {
	Send(ctx context.Context, rec *model.AnalysisRecord) bool
}

// AlertMessage is the short message stored with every alert attempt.
func AlertMessage(rec *model.AnalysisRecord) string {
	return fmt.Sprintf("%s - %s", rec.Recommendation.Action, rec.Recommendation.Summary)
}

// Fanout sends to a primary notifier and then to any mirrors. Only the
// primary's outcome is reported.
type Fanout struct {
	Primary Notifier
	Mirrors []Notifier
	log     *zap.Logger
}

// NewFanout wraps primary with best-effort mirrors.
func NewFanout(primary Notifier, log *zap.Logger, mirrors ...Notifier) *Fanout {
	return &Fanout{Primary: primary, Mirrors: mirrors, log: log.Named("fanout")}
}

// Send delivers to the primary, then to each mirror. A panic in any of them
// is logged and counted as a failed send.
func (f *Fanout) Send(ctx context.Context, rec *model.AnalysisRecord) bool {
	ok := f.guard(ctx, "primary", f.Primary, rec)
	for i, m := range f.Mirrors {
		if !f.guard(ctx, fmt.Sprintf("mirror-%d", i), m, rec) {
			f.log.Warn("mirror send failed", zap.Int("mirror", i), zap.Int64("record_id", rec.ID))
		}
	}
	return ok
}

func (f *Fanout) guard(ctx context.Context, name string, n Notifier, rec *model.AnalysisRecord) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error("notifier panicked", zap.String("notifier", name), zap.Any("panic", r))
			ok = false
		}
	}()
	return n.Send(ctx, rec)
}
