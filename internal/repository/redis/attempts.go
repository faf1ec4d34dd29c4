package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// recordFailureScript increments the counter and starts the window whenever the key has no expiry,
// so a key is never left without a TTL.
var recordFailureScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// AttemptCounter stores failed share verification counts in Redis so every instance sees the same budget.
type AttemptCounter struct {
	client *redis.Client
	prefix string
}

func NewAttemptCounter(client *redis.Client, prefix string) *AttemptCounter {
	return &AttemptCounter{client: client, prefix: prefix}
}

func (c *AttemptCounter) Failures(ctx context.Context, token string) (int64, error) {
	n, err := c.client.Get(ctx, c.key(token)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// RecordFailure increments the count. An existing TTL is never extended, so the window is fixed.
func (c *AttemptCounter) RecordFailure(ctx context.Context, token string, window time.Duration) (int64, error) {
	ttl := window.Milliseconds()
	if ttl < 1 {
		ttl = 1
	}

	n, err := recordFailureScript.Run(ctx, c.client, []string{c.key(token)}, ttl).Int64()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// key never embeds the raw share token.
func (c *AttemptCounter) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return c.prefix + "share-attempts:" + hex.EncodeToString(sum[:])
}
