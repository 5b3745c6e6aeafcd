package stages

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
)

// resolution is the cacheable portion of a weight calculation: the
// scalar weight, the branch that produced it, and the audit trace.
type resolution struct {
	Weight float64
	Source domain.WeightSource
	Trace  domain.CalculationTrace
}

// WeightCache memoizes weight resolutions by input fingerprint so
// repeated runs with unchanged competitors skip recomputation. It is
// process-scoped and safe for concurrent use; concurrent misses on the
// same fingerprint are collapsed into a single computation.
//
// Growth is unbounded. Pool sizes are small, but callers running very
// many tournaments in one process should Purge between batches.
type WeightCache struct {
	mu      sync.RWMutex
	entries map[string]resolution
	sf      singleflight.Group
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewWeightCache creates an empty cache.
func NewWeightCache() *WeightCache {
	return &WeightCache{entries: make(map[string]resolution)}
}

// Fingerprint derives the cache key for a competitor from the fields
// that feed weight resolution: identity, current tier, peak tier, and
// the override. Competitors whose fingerprint is unchanged resolve to
// bit-identical weights without re-deriving from evidence.
func Fingerprint(c domain.Competitor) string {
	var ov string
	if c.Override != nil {
		ov = fmt.Sprintf("%t|%s|%g", c.Override.Enabled, c.Override.Tier, c.Override.Weight)
	}
	var peakAt int64
	if c.PeakAt != nil {
		peakAt = c.PeakAt.Unix()
	}
	raw := fmt.Sprintf("%s|%s|%s|%d|%d|%g|%s",
		c.ID, c.CurrentTier, c.PeakTier, peakAt, c.TournamentWins, c.RatingFallback, ov)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// resolve returns the cached resolution for the fingerprint, computing
// and storing it via compute on a miss. The boolean reports a cache
// hit. Concurrent callers with the same fingerprint share one compute
// call.
func (c *WeightCache) resolve(fp string, compute func() resolution) (resolution, bool) {
	c.mu.RLock()
	res, ok := c.entries[fp]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return res, true
	}

	v, _, _ := c.sf.Do(fp, func() (any, error) {
		// Re-check inside singleflight to handle the race between the
		// read above and group execution.
		c.mu.RLock()
		res, ok := c.entries[fp]
		c.mu.RUnlock()
		if ok {
			return res, nil
		}

		res = compute()
		c.mu.Lock()
		c.entries[fp] = res
		c.mu.Unlock()
		return res, nil
	})
	c.misses.Add(1)
	return v.(resolution), false
}

// Len returns the number of cached resolutions.
func (c *WeightCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the cumulative hit and miss counts.
func (c *WeightCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Purge drops every cached resolution. Counters are preserved.
func (c *WeightCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]resolution)
}
