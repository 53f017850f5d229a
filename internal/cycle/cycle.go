package cycle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SwapSentinel/internal/analyzer"
	"SwapSentinel/internal/collector"
	"SwapSentinel/internal/metrics"
	"SwapSentinel/internal/model"
	"SwapSentinel/internal/notifier"
	"SwapSentinel/internal/policy"
	"SwapSentinel/internal/recorder"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Stage names the step a cycle failed in.
type Stage string

const (
	StageFetch    Stage = "FETCH"
	StageAssemble Stage = "ASSEMBLE"
	StagePersist  Stage = "PERSIST"
)

// Error is a cycle failure tagged with its stage.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Cycle runs one fetch, analyze, persist, notify sequence. Stages run
// strictly in order and the record is persisted before any notification.
type Cycle struct {
	source   collector.Source
	engine   analyzer.Analyzer
	store    recorder.Recorder
	notifier notifier.Notifier
	metrics  *metrics.Recorder
	log      *zap.Logger
	now      func() time.Time
}

// New wires a cycle. m may be nil.
func New(src collector.Source, engine analyzer.Analyzer, store recorder.Recorder, n notifier.Notifier, m *metrics.Recorder, log *zap.Logger) *Cycle {
	return &Cycle{
		source:   src,
		engine:   engine,
		store:    store,
		notifier: n,
		metrics:  m,
		log:      log.Named("cycle"),
		now:      time.Now,
	}
}

// Run executes one cycle for instID. On success the returned record carries
// its persisted id and final alert-sent state. Failures are *Error.
func (c *Cycle) Run(ctx context.Context, instID string, th policy.Thresholds) (*model.AnalysisRecord, error) {
	start := c.now()
	log := c.log.With(zap.String("run_id", uuid.NewString()), zap.String("inst_id", instID))

	log.Info("fetching market data", zap.String("source", c.source.Name()))
	snap, err := c.source.FetchAll(ctx, instID)
	if err != nil {
		return nil, c.fail(log, StageFetch, err, start)
	}

	rec := c.engine.Analyze(ctx, snap)

	record, err := assemble(instID, snap, rec, c.now())
	if err != nil {
		return nil, c.fail(log, StageAssemble, err, start)
	}

	id, err := c.store.SaveAnalysis(ctx, record)
	if err != nil {
		return nil, c.fail(log, StagePersist, err, start)
	}
	record.ID = id
	c.metrics.Recommendation(instID, string(rec.Action), rec.Confidence, record.CurrentPrice)
	log.Info("analysis saved",
		zap.Int64("record_id", id),
		zap.String("recommendation", string(rec.Action)),
		zap.Float64("confidence", rec.Confidence),
		zap.Float64("price", record.CurrentPrice))

	if policy.ShouldAlert(record.Recommendation, th) {
		c.notify(ctx, log, record)
	}

	c.metrics.CycleSucceeded(c.now().Sub(start))
	return record, nil
}

func assemble(instID string, snap *model.MarketSnapshot, rec *model.Recommendation, now time.Time) (*model.AnalysisRecord, error) {
	price, err := decimal.NewFromString(snap.Ticker.Last)
	if err != nil {
		return nil, fmt.Errorf("parse ticker price %q: %w", snap.Ticker.Last, err)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("ticker price %s is not positive", price)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("serialize snapshot: %w", err)
	}
	return &model.AnalysisRecord{
		CreatedAt:      now,
		InstID:         instID,
		CurrentPrice:   price.InexactFloat64(),
		Recommendation: *rec,
		MarketDataJSON: string(data),
		RawResponse:    rec.Raw,
	}, nil
}

// notify sends the alert and records the attempt. Failures here never fail
// the cycle.
func (c *Cycle) notify(ctx context.Context, log *zap.Logger, record *model.AnalysisRecord) {
	ok := c.notifier.Send(ctx, record)
	c.metrics.Alert(ok)

	alert := &model.AlertRecord{
		CreatedAt:  c.now(),
		InstID:     record.InstID,
		Action:     record.Recommendation.Action,
		Confidence: record.Recommendation.Confidence,
		Price:      record.CurrentPrice,
		Message:    notifier.AlertMessage(record),
		Success:    ok,
	}
	if _, err := c.store.SaveEmailAlert(ctx, alert); err != nil {
		log.Error("save alert record failed", zap.Error(err))
	}

	if !ok {
		log.Warn("alert not delivered", zap.Int64("record_id", record.ID))
		return
	}
	if err := c.store.MarkSent(ctx, record.ID); err != nil {
		log.Error("mark alert sent failed", zap.Int64("record_id", record.ID), zap.Error(err))
		return
	}
	record.AlertSent = true
	log.Info("alert sent", zap.String("message", alert.Message))
}

func (c *Cycle) fail(log *zap.Logger, stage Stage, err error, start time.Time) error {
	c.metrics.CycleFailed(string(stage), c.now().Sub(start))
	log.Error("cycle failed", zap.String("stage", string(stage)), zap.Error(err))
	return &Error{Stage: stage, Err: err}
}
