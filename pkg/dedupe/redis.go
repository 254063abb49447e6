package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
)

// checkAndSetScript atomically tests whether a key already exists and, if
// not, sets it with the given TTL — a single round trip instead of
// EXISTS+SETEX racing under concurrent verifiers.
var checkAndSetScript = redis.NewScript(`
local key = KEYS[1]
local ttl_ms = tonumber(ARGV[1])

if redis.call("EXISTS", key) == 1 then
    return 0
end
redis.call("SET", key, "1", "PX", ttl_ms)
return 1
`)

// RedisCache is a Cache backed by Redis, for multi-process deployments where
// an in-memory set cannot be shared across verifiers.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache returns a RedisCache rejecting repeats of a CID seen within
// the last ttl, keyed under prefix (e.g. "sirp:seen:").
func NewRedisCache(client *redis.Client, ttl time.Duration, prefix string) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: prefix}
}

// Check records cid as seen and returns ErrReplayed if it was already
// recorded within the TTL window.
func (c *RedisCache) Check(ctx context.Context, cid atomtypes.Cid32) error {
	key := c.prefix + cid.String()
	res, err := checkAndSetScript.Run(ctx, c.client, []string{key}, c.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("dedupe: redis check %s: %w", cid, err)
	}
	if res == 0 {
		return ErrReplayed
	}
	return nil
}
