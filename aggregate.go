package catalogpix

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ItemResult is the per-item aggregate handed to the external reporting
// collaborator.
type ItemResult struct {
	ItemID            string
	Attempted         int // candidates surviving the URL filter
	Downloaded        int // kept images
	Failed            int // attempted minus kept
	AverageConfidence float64
	Classification    Classification
	Outcomes          map[Outcome]int
	FolderPath        string
}

// RunStats accumulates results across the run. Safe for concurrent use.
type RunStats struct {
	mu      sync.Mutex
	Results []ItemResult
}

func (r *RunStats) add(res ItemResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results = append(r.Results, res)
}

// Totals sums attempted/downloaded/failed counts and tallies terminal
// classifications across all items.
func (r *RunStats) Totals() (attempted, downloaded, failed int, byClass map[Classification]int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byClass = make(map[Classification]int)
	for _, res := range r.Results {
		attempted += res.Attempted
		downloaded += res.Downloaded
		failed += res.Failed
		byClass[res.Classification]++
	}
	return attempted, downloaded, failed, byClass
}

// Metrics are the pipeline's Prometheus collectors. Optional: a nil
// *Metrics disables instrumentation.
type Metrics struct {
	CandidatesTotal prometheus.Counter
	DownloadsTotal  *prometheus.CounterVec // by outcome
	KeptTotal       prometheus.Counter
	ItemsTotal      *prometheus.CounterVec // by classification
	DownloadSeconds prometheus.Histogram
}

// NewMetrics builds and registers the pipeline collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CandidatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "catalogpix",
			Name:      "candidates_total",
			Help:      "Candidate URLs received from the candidate source.",
		}),
		DownloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogpix",
			Name:      "downloads_total",
			Help:      "Candidate processing outcomes.",
		}, []string{"outcome"}),
		KeptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "catalogpix",
			Name:      "images_kept_total",
			Help:      "Images accepted and persisted.",
		}),
		ItemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogpix",
			Name:      "items_total",
			Help:      "Items finished, by terminal classification.",
		}, []string{"classification"}),
		DownloadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "catalogpix",
			Name:      "download_duration_seconds",
			Help:      "Wall time of one candidate fetch including retries.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.CandidatesTotal, m.DownloadsTotal, m.KeptTotal, m.ItemsTotal, m.DownloadSeconds)
	return m
}

func (m *Metrics) observeOutcome(o Outcome) {
	if m == nil {
		return
	}
	m.DownloadsTotal.WithLabelValues(o.String()).Inc()
	if o == OutcomeKept {
		m.KeptTotal.Inc()
	}
}

func (m *Metrics) observeItem(c Classification) {
	if m == nil {
		return
	}
	m.ItemsTotal.WithLabelValues(c.String()).Inc()
}

func (m *Metrics) observeCandidates(n int) {
	if m == nil {
		return
	}
	m.CandidatesTotal.Add(float64(n))
}

func (m *Metrics) observeDownloadDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.DownloadSeconds.Observe(d.Seconds())
}
