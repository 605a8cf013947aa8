package catalogpix

import (
	"image"
	"sync"

	"github.com/corona10/goimagehash"
)

// fingerprintBits is the average-hash length: an 8×8 grayscale grid
// thresholded against its mean brightness.
const fingerprintBits = 64

// Fingerprint computes the 64-bit average hash of an image. Deterministic:
// identical pixels always yield the identical bitstring.
func Fingerprint(img image.Image) (*goimagehash.ImageHash, error) {
	return goimagehash.AverageHash(img)
}

// fingerprintSet is the per-item deduplication state. Scoped to one item
// and discarded when the item's processing ends; safe for concurrent use
// by that item's in-flight workers.
type fingerprintSet struct {
	mu          sync.Mutex
	maxDistance int
	hashes      []*goimagehash.ImageHash
}

// newFingerprintSet derives the maximum Hamming distance from a similarity
// ratio: similarity 0.90 over 64 bits ⇒ distance ≤ 6.
func newFingerprintSet(similarity float64) *fingerprintSet {
	return &fingerprintSet{
		maxDistance: int((1 - similarity) * fingerprintBits),
	}
}

// admit returns false if hash is within maxDistance of an already-accepted
// fingerprint. On acceptance the hash joins the set, so of two concurrent
// near-duplicates exactly one wins.
func (s *fingerprintSet) admit(hash *goimagehash.ImageHash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range s.hashes {
		dist, err := hash.Distance(h)
		if err == nil && dist <= s.maxDistance {
			return false
		}
	}
	s.hashes = append(s.hashes, hash)
	return true
}
