package catalogpix

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRunStatsTotals(t *testing.T) {
	t.Parallel()

	stats := &RunStats{}
	stats.add(ItemResult{ItemID: "A", Attempted: 5, Downloaded: 3, Failed: 2, Classification: Found})
	stats.add(ItemResult{ItemID: "B", Attempted: 2, Downloaded: 1, Failed: 1, Classification: NotSure})
	stats.add(ItemResult{ItemID: "C", Attempted: 0, Downloaded: 0, Failed: 0, Classification: NoImageFound})

	attempted, downloaded, failed, byClass := stats.Totals()
	if attempted != 7 || downloaded != 4 || failed != 3 {
		t.Errorf("totals = %d/%d/%d, want 7/4/3", attempted, downloaded, failed)
	}
	if byClass[Found] != 1 || byClass[NotSure] != 1 || byClass[NoImageFound] != 1 {
		t.Errorf("byClass = %v", byClass)
	}
}

func TestMetricsObservers(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.observeCandidates(7)
	m.observeOutcome(OutcomeKept)
	m.observeOutcome(OutcomeKept)
	m.observeOutcome(OutcomeDuplicate)
	m.observeItem(Found)
	m.observeItem(NotSure)
	m.observeDownloadDuration(50 * time.Millisecond)

	if got := testutil.ToFloat64(m.CandidatesTotal); got != 7 {
		t.Errorf("candidates_total = %v, want 7", got)
	}
	if got := testutil.ToFloat64(m.KeptTotal); got != 2 {
		t.Errorf("images_kept_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.DownloadsTotal.WithLabelValues(OutcomeKept.String())); got != 2 {
		t.Errorf("downloads_total{kept} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.DownloadsTotal.WithLabelValues(OutcomeDuplicate.String())); got != 1 {
		t.Errorf("downloads_total{duplicate} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ItemsTotal.WithLabelValues("found")); got != 1 {
		t.Errorf("items_total{found} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.DownloadSeconds); got != 1 {
		t.Errorf("download_duration_seconds series = %d, want 1", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.observeCandidates(3)
	m.observeOutcome(OutcomeKept)
	m.observeItem(Found)
	m.observeDownloadDuration(time.Second)
}
