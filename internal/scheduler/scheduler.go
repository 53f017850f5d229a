package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SwapSentinel/internal/model"
	"SwapSentinel/internal/notifier"
	"SwapSentinel/internal/policy"
	"SwapSentinel/internal/recorder"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrFatal marks an unexpected fault escaping a cycle. The loop stops on it.
var ErrFatal = errors.New("fatal scheduler error")

const (
	defaultMinWait       = time.Second
	defaultProgressEvery = 10
	statusWindow         = 24 * time.Hour
)

// Runner executes one analysis cycle.
type Runner interface {
	Run(ctx context.Context, instID string, th policy.Thresholds) (*model.AnalysisRecord, error)
}

// Observer receives user-facing loop events.
type Observer interface {
	CycleCompleted(rec *model.AnalysisRecord)
	CycleFailed(err error)
	Progress(c model.Counters)
	Stopped(c model.Counters)
}

// Publisher delivers status text to an operator channel.
type Publisher interface {
	SendText(text string) error
}

// Options configures the loop.
type Options struct {
	InstID        string
	Interval      time.Duration
	Thresholds    policy.Thresholds
	MinWait       time.Duration
	ProgressEvery int
	// StatusCron is a six-field cron expression for the store status report; empty disables it.
	StatusCron string
}

// Scheduler drives cycles at a fixed cadence and owns the lifetime counters.
// Counters are only touched from the goroutine calling Run or RunOnce.
type Scheduler struct {
	runner    Runner
	store     recorder.Recorder
	observer  Observer
	publisher Publisher
	opts      Options
	log       *zap.Logger
	cron      *cron.Cron
	counters  model.Counters

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a scheduler. store and publisher are only used by the status
// report and may be nil.
func New(runner Runner, store recorder.Recorder, observer Observer, publisher Publisher, opts Options, log *zap.Logger) *Scheduler {
	if opts.MinWait <= 0 {
		opts.MinWait = defaultMinWait
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = defaultProgressEvery
	}
	return &Scheduler{
		runner:    runner,
		store:     store,
		observer:  observer,
		publisher: publisher,
		opts:      opts,
		log:       log.Named("scheduler"),
		cron:      cron.New(cron.WithSeconds()),
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Wait returns how long to pause after a cycle that took elapsed, never less
// than minWait.
func Wait(interval, elapsed, minWait time.Duration) time.Duration {
	if d := interval - elapsed; d > minWait {
		return d
	}
	return minWait
}

// Counters returns a copy of the lifetime counters.
func (s *Scheduler) Counters() model.Counters { return s.counters }

// RunOnce runs a single cycle and updates the counters. It is used for the
// startup diagnostic.
func (s *Scheduler) RunOnce(ctx context.Context) (*model.AnalysisRecord, error) {
	var rec *model.AnalysisRecord
	var cycleErr error
	err := s.guard(func() {
		rec, cycleErr = s.runCycle(ctx)
	})
	if err != nil {
		return nil, err
	}
	return rec, cycleErr
}

// Run loops until ctx is cancelled, returning nil. A panic in a cycle stops the
// loop and returns an error wrapping ErrFatal. Final counters are reported
// either way.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.startStatusReport(ctx); err != nil {
		return err
	}
	defer s.stopStatusReport()
	defer s.reportFinal()

	s.log.Info("continuous analysis started",
		zap.String("inst_id", s.opts.InstID),
		zap.Duration("interval", s.opts.Interval),
		zap.Float64("confidence_threshold", s.opts.Thresholds.Confidence))

	for {
		if ctx.Err() != nil {
			s.log.Info("analysis loop cancelled")
			return nil
		}

		start := s.now()
		if err := s.guard(func() { s.runCycle(ctx) }); err != nil {
			s.log.Error("analysis loop aborted", zap.Error(err))
			return err
		}

		wait := Wait(s.opts.Interval, s.now().Sub(start), s.opts.MinWait)
		s.log.Debug("waiting for next cycle", zap.Duration("wait", wait))
		if err := s.sleep(ctx, wait); err != nil {
			s.log.Info("analysis loop cancelled")
			return nil
		}
	}
}

// runCycle runs one cycle to completion; cancellation only takes effect
// between cycles.
func (s *Scheduler) runCycle(ctx context.Context) (*model.AnalysisRecord, error) {
	s.log.Info("starting analysis cycle", zap.Int("cycle", s.counters.TotalCycles+s.counters.FailedCycles+1))

	rec, err := s.runner.Run(context.WithoutCancel(ctx), s.opts.InstID, s.opts.Thresholds)
	if err == nil && rec == nil {
		err = errors.New("cycle returned no record")
	}
	if err != nil {
		s.counters.FailedCycles++
		s.log.Warn("analysis cycle failed", zap.Error(err))
		s.notifyFailed(err)
		return nil, err
	}

	s.counters.TotalCycles++
	s.counters.LastCycleAt = s.now()
	if rec.AlertSent {
		s.counters.AlertsSent++
	}
	if s.observer != nil {
		s.observer.CycleCompleted(rec)
	}
	if s.counters.TotalCycles%s.opts.ProgressEvery == 0 {
		s.log.Info("progress",
			zap.Int("cycles", s.counters.TotalCycles),
			zap.Int("failed", s.counters.FailedCycles),
			zap.Int("alerts_sent", s.counters.AlertsSent))
		if s.observer != nil {
			s.observer.Progress(s.counters)
		}
	}
	return rec, nil
}

func (s *Scheduler) notifyFailed(err error) {
	if s.observer != nil {
		s.observer.CycleFailed(err)
	}
}

// guard converts a panic in fn into an ErrFatal error.
func (s *Scheduler) guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic in cycle: %v", ErrFatal, r)
		}
	}()
	fn()
	return nil
}

func (s *Scheduler) reportFinal() {
	s.log.Info("analysis finished",
		zap.Int("cycles", s.counters.TotalCycles),
		zap.Int("failed", s.counters.FailedCycles),
		zap.Int("alerts_sent", s.counters.AlertsSent))
	if s.observer != nil {
		s.observer.Stopped(s.counters)
	}
}

func (s *Scheduler) startStatusReport(ctx context.Context) error {
	if s.opts.StatusCron == "" || s.store == nil {
		return nil
	}
	if _, err := s.cron.AddFunc(s.opts.StatusCron, func() { s.statusReport(ctx) }); err != nil {
		return fmt.Errorf("register status report: %w", err)
	}
	s.cron.Start()
	s.log.Info("status report scheduled", zap.String("cron", s.opts.StatusCron))
	return nil
}

func (s *Scheduler) stopStatusReport() {
	<-s.cron.Stop().Done()
}

// statusReport logs store totals for the last 24h. It reads only the store,
// never the loop counters.
func (s *Scheduler) statusReport(ctx context.Context) {
	stats, err := s.store.Stats(ctx, s.now().Add(-statusWindow))
	if err != nil {
		s.log.Error("status report failed", zap.Error(err))
		return
	}
	s.log.Info("status report",
		zap.Int("analyses", stats.Analyses),
		zap.Int("buy", stats.Buy),
		zap.Int("sell", stats.Sell),
		zap.Int("hold", stats.Hold),
		zap.Int("alerts_sent", stats.AlertsSent),
		zap.Int("alerts_failed", stats.AlertsFailed))
	if s.publisher != nil {
		if err := s.publisher.SendText(notifier.FormatStats(stats, statusWindow)); err != nil {
			s.log.Warn("publish status report failed", zap.Error(err))
		}
	}
}

// StatusCommand answers chat commands from the store.
func StatusCommand(store recorder.Recorder) notifier.CommandHandler {
	return func(ctx context.Context, command string) string {
		switch command {
		case "/status":
			stats, err := store.Stats(ctx, time.Now().Add(-statusWindow))
			if err != nil {
				return fmt.Sprintf("❌ status unavailable: %v", err)
			}
			return notifier.FormatStats(stats, statusWindow)
		case "/help", "/start":
			return "Commands:\n/status - analyses and alerts in the last 24h"
		default:
			return ""
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
