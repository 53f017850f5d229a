package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counts(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.CycleSucceeded(2 * time.Second)
	r.CycleFailed("FETCH", time.Second)
	r.CycleFailed("FETCH", time.Second)
	r.Recommendation("ETH-USDT-SWAP", "BUY", 85, 3012.5)
	r.Alert(true)
	r.Alert(false)

	if got := testutil.ToFloat64(r.cycles.WithLabelValues("success")); got != 1 {
		t.Errorf("success cycles = %v", got)
	}
	if got := testutil.ToFloat64(r.stageFailures.WithLabelValues("FETCH")); got != 2 {
		t.Errorf("fetch failures = %v", got)
	}
	if got := testutil.ToFloat64(r.lastPrice.WithLabelValues("ETH-USDT-SWAP")); got != 3012.5 {
		t.Errorf("last price = %v", got)
	}
	if got := testutil.ToFloat64(r.alerts.WithLabelValues("failure")); got != 1 {
		t.Errorf("failed alerts = %v", got)
	}
}

func TestRecorder_NilIsSafe(t *testing.T) {
	var r *Recorder
	r.CycleSucceeded(time.Second)
	r.CycleFailed("PERSIST", time.Second)
	r.Recommendation("X", "HOLD", 0, 0)
	r.Alert(true)
}
