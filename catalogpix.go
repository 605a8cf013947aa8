// Package catalogpix decides, without human review, which candidate product
// image URLs to keep for each catalog item: it filters URLs, downloads under
// a bounded concurrency cap with retry, rejects perceptual duplicates, gates
// on a composite quality score, estimates product-match confidence and
// persists survivors under a deterministic folder layout.
package catalogpix

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Defaults for zero-value Config fields.
const (
	DefaultConcurrency      = 5
	DefaultMaxImagesPerItem = 5
	DefaultRetryAttempts    = 2
	DefaultMatchThreshold   = 0.70
	DefaultPerfectThreshold = 0.95
	// DefaultDuplicateThreshold is the minimum fingerprint similarity at
	// which two images count as duplicates (0.90 of 64 bits → Hamming
	// distance ≤ 6).
	DefaultDuplicateThreshold = 0.90

	defaultTimeout     = 10 * time.Second
	defaultMaxBytes    = 10 << 20 // 10MB
	defaultMinBytes    = 1024
	defaultBackoffBase = 500 * time.Millisecond
	defaultBackoffMult = 2.0
	defaultMaxBackoff  = 5 * time.Second
)

// Config holds the immutable per-run configuration and injected
// dependencies. Construct once per run and pass by reference; zero values
// are filled with defaults on first use.
type Config struct {
	BaseDir string // root directory for item folders

	StealthClient *http.Client // optional: TLS-fingerprinted client, tried first
	HTTPClient    *http.Client // optional: default http client (nil = http.DefaultClient)
	UserAgent     string

	Concurrency      int // global simultaneous download cap
	MaxImagesPerItem int
	PolitenessDelay  time.Duration // pause before each fetch, per worker

	RetryAttempts     int           // retries after the first attempt
	BackoffBase       time.Duration // backoff = base * mult^(attempt-1), capped
	BackoffMultiplier float64
	MaxBackoff        time.Duration
	DownloadTimeout   time.Duration // per network operation
	MaxBytes          int64         // response body cap
	MinBytes          int           // reject smaller bodies
	SkipProbe         bool          // skip the content-type pre-check request

	Profile QualityProfile    // named threshold bundle for the scorer
	Quality QualityThresholds // optional override; zero value = from Profile

	DuplicateThreshold float64 // fingerprint similarity ⇒ duplicate
	MatchThreshold     float64 // avg confidence below this ⇒ NotSure
	PerfectThreshold   float64

	NotSureSuffix string // folder suffix for NotSure items
	NoImageSuffix string // folder suffix for NoImageFound items

	WriteSidecar bool // write metadata.json next to kept images

	// TrustedSources and LowTrustSources adjust opaque-mode confidence by
	// sourceTag (trusted +0.05, low trust −0.05). Unlisted tags are neutral.
	TrustedSources  []string
	LowTrustSources []string

	ScoreCache *ScoreCache // optional cross-image quality cache
	Metrics    *Metrics    // optional Prometheus collectors

	// Optional callbacks for metrics/logging.
	OnPanic      func(tag string, r any)
	OnClassified func(ItemResult)

	semOnce sync.Once
	sem     *semaphore.Weighted
}

// defaults fills zero-value fields with sensible defaults. Called by
// entry-point methods.
func (cfg *Config) defaults() {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible; go-catalogpix/1.0)"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.MaxImagesPerItem <= 0 {
		cfg.MaxImagesPerItem = DefaultMaxImagesPerItem
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	} else if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.BackoffMultiplier <= 1 {
		cfg.BackoffMultiplier = defaultBackoffMult
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = defaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.MinBytes <= 0 {
		cfg.MinBytes = defaultMinBytes
	}
	if cfg.Quality.isZero() {
		cfg.Quality = cfg.Profile.Thresholds()
	}
	if cfg.DuplicateThreshold <= 0 || cfg.DuplicateThreshold > 1 {
		cfg.DuplicateThreshold = DefaultDuplicateThreshold
	}
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = DefaultMatchThreshold
	}
	if cfg.PerfectThreshold <= 0 {
		cfg.PerfectThreshold = DefaultPerfectThreshold
	}
	if cfg.NotSureSuffix == "" {
		cfg.NotSureSuffix = "_NOT_SURE"
	}
	if cfg.NoImageSuffix == "" {
		cfg.NoImageSuffix = "_NO_IMAGE"
	}
	cfg.semOnce.Do(func() {
		cfg.sem = semaphore.NewWeighted(int64(cfg.Concurrency))
	})
}
