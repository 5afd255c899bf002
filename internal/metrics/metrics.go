// Package metrics exposes review run metrics for Prometheus:
//
//	review_runs_total{status}
//	review_run_duration_seconds
//	review_trades_total{outcome}
//	review_si_instruments{period}
//	go_* and process_* runtime metrics
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guttosm/sireview/internal/domain/models"
)

// Run outcomes used as the status label.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Recorder owns a registry and the review collectors.
type Recorder struct {
	registry      *prometheus.Registry
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	trades        *prometheus.CounterVec
	siInstruments *prometheus.GaugeVec
}

// New registers the review collectors and the Go/process collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "review_runs_total",
			Help: "Number of review runs by status",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "review_run_duration_seconds",
			Help:    "Wall time of a review run",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "review_trades_total",
			Help: "Trade rows processed by outcome",
		}, []string{"outcome"}),
		siInstruments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "review_si_instruments",
			Help: "Instruments flagged SI in the latest run, per period",
		}, []string{"period"}),
	}
	r.registry.MustRegister(
		r.runs, r.runDuration, r.trades, r.siInstruments,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveFailure counts a failed run.
func (r *Recorder) ObserveFailure(elapsed time.Duration) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(StatusFailure).Inc()
	r.runDuration.Observe(elapsed.Seconds())
}

// ObserveRun records a successful run: its duration, trade outcomes and the
// SI instrument count of every period. The gauge is reset so periods from an
// earlier run do not linger.
func (r *Recorder) ObserveRun(elapsed time.Duration, res *models.ReviewResult) {
	if r == nil || res == nil {
		return
	}
	r.runs.WithLabelValues(StatusSuccess).Inc()
	r.runDuration.Observe(elapsed.Seconds())

	st := res.Stats
	r.trades.WithLabelValues("reviewed").Add(float64(st.ReviewedTrades))
	r.trades.WithLabelValues("auction").Add(float64(st.AuctionTrades))
	r.trades.WithLabelValues("excluded_split").Add(float64(st.ExcludedSplit))
	r.trades.WithLabelValues("unresolved_period").Add(float64(st.UnresolvedPeriod))

	r.siInstruments.Reset()
	for _, p := range res.AllPeriods {
		n := 0
		for _, inst := range res.Instruments {
			n += inst.Metrics(p).SIFlag
		}
		r.siInstruments.WithLabelValues(p.String()).Set(float64(n))
	}
}
