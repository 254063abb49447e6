package dedupe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/logline-foundation/atomic-core/pkg/atomcrypto"
)

func TestMemoryCacheRejectsRepeatWithinTTL(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Minute)
	cid := atomcrypto.CID([]byte("frame one"))

	if err := cache.Check(ctx, cid); err != nil {
		t.Fatalf("first check: %v", err)
	}
	if err := cache.Check(ctx, cid); !errors.Is(err, ErrReplayed) {
		t.Fatalf("expected ErrReplayed on repeat, got %v", err)
	}
}

func TestMemoryCacheAllowsDistinctCIDs(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Minute)

	if err := cache.Check(ctx, atomcrypto.CID([]byte("a"))); err != nil {
		t.Fatalf("check a: %v", err)
	}
	if err := cache.Check(ctx, atomcrypto.CID([]byte("b"))); err != nil {
		t.Fatalf("check b: %v", err)
	}
}

func TestMemoryCacheAllowsRepeatAfterTTLExpires(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Millisecond)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	cid := atomcrypto.CID([]byte("frame one"))
	if err := cache.Check(ctx, cid); err != nil {
		t.Fatalf("first check: %v", err)
	}

	now = now.Add(time.Second)
	if err := cache.Check(ctx, cid); err != nil {
		t.Fatalf("expected check to succeed after TTL expiry, got %v", err)
	}
}

func TestMemoryCacheSweepsExpiredEntriesPastCapacity(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Millisecond)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	for i := 0; i < maxTracked+10; i++ {
		cid := atomcrypto.CID([]byte{byte(i), byte(i >> 8)})
		now = now.Add(time.Millisecond * 2)
		if err := cache.Check(ctx, cid); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}

	cache.mu.Lock()
	size := len(cache.seen)
	cache.mu.Unlock()
	if size > maxTracked {
		t.Fatalf("expected sweep to bound cache size, got %d entries", size)
	}
}
