package catalogpix

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// CandidateSource produces candidate image URLs for an item. Implemented by
// the external search/scraping layer.
type CandidateSource interface {
	Search(ctx context.Context, item *CatalogItem) ([]CandidateURL, error)
}

// itemState is the only state shared across an item's concurrent workers:
// the image counter, accepted records and the fingerprint set. Scoped to
// one item and discarded when its processing ends.
type itemState struct {
	mu       sync.Mutex
	kept     int
	records  []ImageRecord
	sidecar  []SidecarEntry
	fprints  *fingerprintSet
	outcomes map[Outcome]int
}

func newItemState(cfg *Config) *itemState {
	return &itemState{
		fprints:  newFingerprintSet(cfg.DuplicateThreshold),
		outcomes: make(map[Outcome]int),
	}
}

func (st *itemState) capReached(max int) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.kept >= max
}

// noteOutcome counts a candidate outcome and forwards it to metrics.
func (cfg *Config) noteOutcome(st *itemState, o Outcome) {
	st.mu.Lock()
	st.outcomes[o]++
	st.mu.Unlock()
	cfg.Metrics.observeOutcome(o)
}

// Run processes items sequentially, asking source for each item's
// candidates. Per-item fatal errors are logged and the run continues;
// degradation is toward NoImageFound, never a crash.
func (cfg *Config) Run(ctx context.Context, source CandidateSource, items []*CatalogItem) *RunStats {
	cfg.defaults()
	stats := &RunStats{}

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}

		candidates, err := source.Search(ctx, item)
		if err != nil {
			slog.Warn("catalogpix: candidate search failed", "item", item.ID, "error", err.Error())
		}

		res, err := cfg.ProcessItem(ctx, item, candidates)
		if err != nil {
			slog.Error("catalogpix: item aborted", "item", item.ID, "error", err.Error())
		}
		if res != nil {
			stats.add(*res)
		}
	}
	return stats
}

// ProcessItem runs the full decision pipeline for one item: URL filter,
// concurrent bounded downloads, dedup, quality gate, match estimation,
// persistence and final classification. Returns the per-item aggregate;
// a non-nil error means a fatal I/O failure aborted the item (the result
// still reflects whatever was classified from the partial state).
func (cfg *Config) ProcessItem(ctx context.Context, item *CatalogItem, candidates []CandidateURL) (*ItemResult, error) {
	cfg.defaults()
	cfg.Metrics.observeCandidates(len(candidates))

	survivors, dropped := filterCandidates(candidates)
	st := newItemState(cfg)
	for i := 0; i < dropped; i++ {
		cfg.noteOutcome(st, OutcomeFilteredURL)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, cand := range survivors {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					if cfg.OnPanic != nil {
						cfg.OnPanic("candidate", r)
					}
				}
			}()

			// Fast-fail before touching the semaphore: once the cap is
			// reached, queued candidates must not cost a network round-trip.
			if st.capReached(cfg.MaxImagesPerItem) {
				cfg.noteOutcome(st, OutcomeCapReached)
				return nil
			}

			if err := cfg.sem.Acquire(gctx, 1); err != nil {
				return nil // item aborted or run cancelled
			}
			defer cfg.sem.Release(1)

			if cfg.PolitenessDelay > 0 {
				select {
				case <-time.After(cfg.PolitenessDelay):
				case <-gctx.Done():
					return nil
				}
			}

			return cfg.processCandidate(gctx, item, cand, i, st)
		})
	}
	fatal := g.Wait()

	res, err := cfg.finalizeItem(item, st)
	if fatal != nil {
		err = fatal
	}
	return res, err
}

// processCandidate takes one surviving URL through download → dedup →
// quality → match → persist. Only disk failures return an error; every
// other failure is counted and swallowed.
func (cfg *Config) processCandidate(ctx context.Context, item *CatalogItem, cand CandidateURL, slot int, st *itemState) error {
	start := time.Now()
	f, err := cfg.download(ctx, cand.URL)
	cfg.Metrics.observeDownloadDuration(time.Since(start))
	if err != nil {
		cfg.noteOutcome(st, outcomeForError(err))
		slog.Debug("catalogpix: download rejected", "item", item.ID, "url", cand.URL, "slot", slot, "error", err.Error())
		return nil
	}

	// Hash failure degrades to accept, like any heuristic outage.
	var fingerprint uint64
	if hash, err := Fingerprint(f.Image); err == nil {
		if !st.fprints.admit(hash) {
			cfg.noteOutcome(st, OutcomeDuplicate)
			slog.Debug("catalogpix: duplicate rejected", "item", item.ID, "url", cand.URL)
			return nil
		}
		fingerprint = hash.GetHash()
	}

	credit := extractEmbeddedCredit(f.Data)
	quality := cfg.assessWithCache(f, credit)
	if !quality.Valid {
		cfg.noteOutcome(st, OutcomeQualityRejected)
		slog.Debug("catalogpix: quality rejected", "item", item.ID, "url", cand.URL, "reasons", quality.Reasons)
		return nil
	}

	// Low confidence is a soft signal: the image is kept, the item's
	// average sinks toward NotSure.
	match := cfg.MatchConfidence(item, cand)

	st.mu.Lock()
	if st.kept >= cfg.MaxImagesPerItem {
		st.mu.Unlock()
		cfg.noteOutcome(st, OutcomeCapReached)
		return nil
	}
	st.kept++
	n := st.kept
	st.mu.Unlock()

	path, err := cfg.writeImage(cfg.workingDir(item), item, n, f)
	if err != nil {
		return fmt.Errorf("item %s: %w", item.ID, err)
	}

	st.mu.Lock()
	st.records = append(st.records, ImageRecord{
		FilePath:        path,
		Fingerprint:     fingerprint,
		QualityScore:    quality.Score,
		MatchConfidence: match.Confidence,
		SourceURL:       cand.URL,
	})
	st.sidecar = append(st.sidecar, SidecarEntry{
		FileName:             filepath.Base(path),
		URL:                  cand.URL,
		DownloadDate:         time.Now().UTC(),
		QualityScore:         quality.Score,
		Width:                quality.Width,
		Height:               quality.Height,
		BackgroundConfidence: quality.BackgroundConfidence,
		HasWatermark:         quality.Watermarked,
		MatchConfidence:      match.Confidence,
		Credit:               credit.CreditLine(),
	})
	st.mu.Unlock()

	cfg.noteOutcome(st, OutcomeKept)
	slog.Debug("catalogpix: image kept", "item", item.ID, "url", cand.URL,
		"quality", quality.Score, "confidence", match.Confidence, "mode", match.Mode.String())
	return nil
}

// assessWithCache scores quality, memoizing by content hash when a
// ScoreCache is configured.
func (cfg *Config) assessWithCache(f *FetchedImage, credit *EmbeddedCredit) QualityAssessment {
	if cfg.ScoreCache == nil {
		return assessQuality(f, credit, cfg.Quality)
	}
	key := cacheKey(f.Data)
	if a, ok := cfg.ScoreCache.get(key); ok {
		return a
	}
	a := assessQuality(f, credit, cfg.Quality)
	cfg.ScoreCache.put(key, a)
	return a
}

// finalizeItem classifies the item from its kept images, renames its
// directory accordingly and writes the sidecar.
func (cfg *Config) finalizeItem(item *CatalogItem, st *itemState) (*ItemResult, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	var sum float64
	for _, r := range st.records {
		sum += r.MatchConfidence
	}
	avg := 0.0
	if len(st.records) > 0 {
		avg = sum / float64(len(st.records))
	}

	cls := Classify(len(st.records), avg, cfg.MatchThreshold)

	dir, err := cfg.finalizeDir(item, cls)
	if err == nil && dir != cfg.workingDir(item) {
		for i := range st.records {
			st.records[i].FilePath = filepath.Join(dir, filepath.Base(st.records[i].FilePath))
		}
	}
	if err == nil && cfg.WriteSidecar && len(st.sidecar) > 0 {
		err = cfg.writeSidecar(dir, st.sidecar)
	}

	item.Status = cls
	item.Confidence = avg
	item.KeptImages = st.records

	attempted := 0
	for _, n := range st.outcomes {
		attempted += n
	}
	attempted -= st.outcomes[OutcomeFilteredURL]

	outcomes := make(map[Outcome]int, len(st.outcomes))
	for k, v := range st.outcomes {
		outcomes[k] = v
	}

	res := &ItemResult{
		ItemID:            item.ID,
		Attempted:         attempted,
		Downloaded:        len(st.records),
		Failed:            attempted - len(st.records),
		AverageConfidence: avg,
		Classification:    cls,
		Outcomes:          outcomes,
		FolderPath:        dir,
	}
	cfg.Metrics.observeItem(cls)
	if cfg.OnClassified != nil {
		cfg.OnClassified(*res)
	}
	return res, err
}
