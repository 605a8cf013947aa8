package catalogpix

import "image"

// BrandNone is the sentinel value marking an item without a brand.
const BrandNone = "NONE"

// Classification is the terminal state of an item after all download
// attempts are exhausted. Items start as Pending.
type Classification int

const (
	Pending Classification = iota
	Found
	NotSure
	NoImageFound
)

func (c Classification) String() string {
	switch c {
	case Found:
		return "found"
	case NotSure:
		return "not_sure"
	case NoImageFound:
		return "no_image_found"
	default:
		return "pending"
	}
}

// CatalogItem is one row of the input catalog. It is created by the
// spreadsheet/ingestion layer and mutated only by the pipeline, never
// shared across items.
type CatalogItem struct {
	ID         string
	Name       string
	Brand      string // BrandNone or "" means no brand
	Status     Classification
	Confidence float64
	KeptImages []ImageRecord
}

// HasBrand reports whether the item carries a usable brand.
func (it *CatalogItem) HasBrand() bool {
	return it.Brand != "" && it.Brand != BrandNone
}

// CandidateURL is a single image URL proposed by an external candidate
// source for an item, tagged with where it came from.
type CandidateURL struct {
	URL       string
	SourceTag string
}

// FetchedImage holds a successfully downloaded and decoded image. It is
// owned exclusively by the worker that fetched it until it is either
// discarded or persisted as an ImageRecord.
type FetchedImage struct {
	Data                []byte
	DeclaredContentType string
	Format              string // decoded format: "jpeg" or "png"
	Width               int
	Height              int
	Image               image.Image
}

// ImageRecord is one accepted image persisted on disk. Immutable after
// creation.
type ImageRecord struct {
	FilePath        string
	Fingerprint     uint64
	QualityScore    float64
	MatchConfidence float64
	SourceURL       string
}
