package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Recorder exposes the bot's Prometheus collectors. All methods are safe on
// a nil receiver so components can run without metrics.
type Recorder struct {
	registry       *prometheus.Registry
	cycles         *prometheus.CounterVec
	stageFailures  *prometheus.CounterVec
	recommendation *prometheus.CounterVec
	alerts         *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	lastPrice      *prometheus.GaugeVec
	lastConfidence *prometheus.GaugeVec
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		cycles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "swapsentinel_cycles_total",
			Help: "Analysis cycles by outcome",
		}, []string{"outcome"}),
		stageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "swapsentinel_stage_failures_total",
			Help: "Cycle failures by stage",
		}, []string{"stage"}),
		recommendation: f.NewCounterVec(prometheus.CounterOpts{
			Name: "swapsentinel_recommendations_total",
			Help: "Recommendations by instrument and action",
		}, []string{"inst_id", "action"}),
		alerts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "swapsentinel_alerts_total",
			Help: "Notification attempts by outcome",
		}, []string{"outcome"}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "swapsentinel_cycle_duration_seconds",
			Help:    "Wall-clock duration of one analysis cycle",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		lastPrice: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "swapsentinel_last_price",
			Help: "Last observed price",
		}, []string{"inst_id"}),
		lastConfidence: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "swapsentinel_last_confidence",
			Help: "Confidence of the last recommendation",
		}, []string{"inst_id"}),
	}
}

// CycleSucceeded counts a completed cycle and observes its duration.
func (r *Recorder) CycleSucceeded(d time.Duration) {
	if r == nil {
		return
	}
	r.cycles.WithLabelValues("success").Inc()
	r.cycleDuration.Observe(d.Seconds())
}

// CycleFailed counts a failed cycle under its stage.
func (r *Recorder) CycleFailed(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.cycles.WithLabelValues("failure").Inc()
	r.stageFailures.WithLabelValues(stage).Inc()
	r.cycleDuration.Observe(d.Seconds())
}

// Recommendation counts the action and updates the price and confidence gauges.
func (r *Recorder) Recommendation(instID, action string, confidence, price float64) {
	if r == nil {
		return
	}
	r.recommendation.WithLabelValues(instID, action).Inc()
	r.lastConfidence.WithLabelValues(instID).Set(confidence)
	r.lastPrice.WithLabelValues(instID).Set(price)
}

// Alert counts a notification attempt by outcome.
func (r *Recorder) Alert(success bool) {
	if r == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	r.alerts.WithLabelValues(outcome).Inc()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server stopped", zap.Error(err))
	}
}
