package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FixedWindow counts points in Redis. The first point of a window sets the
// key's expiry; the window restarts when the key expires.
type FixedWindow struct {
	client   *redis.Client
	prefix   string
	requests int64
	window   time.Duration
}

func NewFixedWindow(client *redis.Client, prefix string, requests int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		client:   client,
		prefix:   prefix,
		requests: int64(requests),
		window:   window,
	}
}

func (fw *FixedWindow) Consume(ctx context.Context, key string) error {
	k := fw.prefix + key

	pipe := fw.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", key, err)
	}

	// Plain EXPIRE rather than EXPIRE NX keeps Redis 6 supported. A key left
	// without a TTL by an earlier failure is repaired on the next hit.
	retry := ttl.Val()
	if needsExpiry(incr.Val(), retry) {
		if err := fw.client.PExpire(ctx, k, fw.window).Err(); err != nil {
			return fmt.Errorf("rate limit %s: %w", key, err)
		}
		retry = fw.window
	}

	if incr.Val() > fw.requests {
		return &ExceededError{RetryAfter: retry}
	}
	return nil
}

// needsExpiry reports whether the counter has just been created or has no
// TTL. PTTL returns -1 for a key without expiry.
func needsExpiry(count int64, ttl time.Duration) bool {
	return count == 1 || ttl < 0
}
