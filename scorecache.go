package catalogpix

import (
	"crypto/sha256"
	"sync"
)

// ScoreCache memoizes quality assessments by content hash so that the same
// bytes served under different URLs (or for different items) are scored
// once. Read-mostly and safe to share across the whole run; bounded by
// dropping an arbitrary entry when full.
type ScoreCache struct {
	mu      sync.RWMutex
	max     int
	entries map[[sha256.Size]byte]QualityAssessment
}

// NewScoreCache returns a cache holding at most max assessments.
func NewScoreCache(max int) *ScoreCache {
	if max <= 0 {
		max = 256
	}
	return &ScoreCache{
		max:     max,
		entries: make(map[[sha256.Size]byte]QualityAssessment, max),
	}
}

func cacheKey(data []byte) [sha256.Size]byte { return sha256.Sum256(data) }

func (c *ScoreCache) get(key [sha256.Size]byte) (QualityAssessment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.entries[key]
	return a, ok
}

func (c *ScoreCache) put(key [sha256.Size]byte, a QualityAssessment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.max {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = a
}
