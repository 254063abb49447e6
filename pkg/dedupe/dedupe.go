// Package dedupe guards against replayed SIRP frames: once a frame's CID has
// been seen and verified, a second frame with the same CID is rejected
// within a TTL window.
package dedupe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
)

// ErrReplayed is returned by Check when cid was already recorded within the
// cache's TTL window.
var ErrReplayed = fmt.Errorf("dedupe: frame already processed")

// Cache records verified frame CIDs and rejects repeats within a TTL window.
// Check must be safe for concurrent use.
type Cache interface {
	Check(ctx context.Context, cid atomtypes.Cid32) error
}

// MemoryCache is an in-process Cache, for single-process deployments or as
// the fallback when no Redis client is configured.
type MemoryCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	clock func() time.Time
	seen  map[atomtypes.Cid32]time.Time
}

// maxTracked is the MemoryCache size that triggers a sweep: a Check that
// grows the map past it drops every entry older than ttl. Entries still
// inside the TTL window are kept, so the map may stay above maxTracked.
const maxTracked = 4096

// NewMemoryCache returns a MemoryCache rejecting repeats of a CID seen within
// the last ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:   ttl,
		clock: time.Now,
		seen:  make(map[atomtypes.Cid32]time.Time),
	}
}

// Check records cid as seen and returns ErrReplayed if it was already
// recorded within the TTL window.
func (c *MemoryCache) Check(_ context.Context, cid atomtypes.Cid32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	if seenAt, ok := c.seen[cid]; ok {
		if now.Sub(seenAt) < c.ttl {
			return ErrReplayed
		}
	}
	c.seen[cid] = now

	if len(c.seen) > maxTracked {
		c.sweepExpired(now)
	}
	return nil
}

// sweepExpired drops entries older than ttl. Caller must hold c.mu.
func (c *MemoryCache) sweepExpired(now time.Time) {
	for cid, seenAt := range c.seen {
		if now.Sub(seenAt) >= c.ttl {
			delete(c.seen, cid)
		}
	}
}
