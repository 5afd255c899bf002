package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/period"
)

func TestObserveRun(t *testing.T) {
	r := New()
	res := &models.ReviewResult{
		AllPeriods: []period.Label{4, 5},
		Instruments: []models.InstrumentResult{
			{InstrumentID: "A", Periods: map[period.Label]models.PeriodMetrics{5: {SIFlag: 1}}},
			{InstrumentID: "B", Periods: map[period.Label]models.PeriodMetrics{4: {SIFlag: 0}, 5: {SIFlag: 1}}},
		},
		Stats: models.ReviewStats{ReviewedTrades: 10, AuctionTrades: 2, ExcludedSplit: 3},
	}
	r.ObserveRun(time.Second, res)
	r.ObserveFailure(time.Second)

	if got := testutil.ToFloat64(r.runs.WithLabelValues(StatusSuccess)); got != 1 {
		t.Fatalf("success runs %v", got)
	}
	if got := testutil.ToFloat64(r.runs.WithLabelValues(StatusFailure)); got != 1 {
		t.Fatalf("failed runs %v", got)
	}
	if got := testutil.ToFloat64(r.trades.WithLabelValues("excluded_split")); got != 3 {
		t.Fatalf("excluded %v", got)
	}
	if got := testutil.ToFloat64(r.siInstruments.WithLabelValues("P5")); got != 2 {
		t.Fatalf("P5 SI %v", got)
	}
	if got := testutil.ToFloat64(r.siInstruments.WithLabelValues("P4")); got != 0 {
		t.Fatalf("P4 SI %v", got)
	}
}

func TestObserve_NilRecorder(t *testing.T) {
	var r *Recorder
	r.ObserveRun(time.Second, &models.ReviewResult{})
	r.ObserveFailure(time.Second)
}

func TestHandler_Exposition(t *testing.T) {
	r := New()
	r.ObserveRun(time.Millisecond, &models.ReviewResult{})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"review_runs_total", "review_run_duration_seconds", "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("exposition missing %s", want)
		}
	}
}
