// Package tiered implements a two-level (L1 + L2) cache adapter.
package tiered

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Strob0t/subete/internal/port/cache"
	"github.com/Strob0t/subete/internal/resilience"
)

// L2 calls are skipped for l2Cooldown after l2Failures consecutive errors.
const (
	l2Failures = 5
	l2Cooldown = 30 * time.Second
)

// Cache combines an L1 (in-process) and an optional L2 (remote) cache.
// Get checks L1 first, then L2, backfilling L1 on an L2 hit. L2 failures are
// logged and treated as misses, and a run of them trips a breaker so a dead
// L2 is not called once per blame.
type Cache struct {
	l1       cache.Cache
	l2       cache.Cache
	l1Expire time.Duration
	breaker  *resilience.Breaker
}

// New creates a tiered cache. l2 may be nil. l1Expire controls how long L2
// backfill entries live in L1.
func New(l1, l2 cache.Cache, l1Expire time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, l1Expire: l1Expire, breaker: resilience.NewBreaker(l2Failures, l2Cooldown)}
}

// l2Do runs fn against L2 through the breaker. Errors are logged, never
// returned.
func (c *Cache) l2Do(ctx context.Context, op, key string, fn func(context.Context) error) bool {
	err := c.breaker.Do(ctx, fn)
	switch {
	case err == nil:
		return true
	case errors.Is(err, resilience.ErrOpen):
		slog.Debug("l2 cache skipped, breaker open", "op", op, "key", key)
	default:
		slog.Warn("l2 cache "+op+" failed", "key", key, "error", err)
	}
	return false
}

// Get checks L1, then L2. On L2 hit, backfills L1.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	val, found, err := c.l1.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found || c.l2 == nil {
		return val, found, nil
	}

	ok = c.l2Do(ctx, "get", key, func(ctx context.Context) error {
		var gerr error
		val, found, gerr = c.l2.Get(ctx, key)
		return gerr
	})
	if !ok || !found {
		return nil, false, nil
	}
	_ = c.l1.Set(ctx, key, val, c.l1Expire)
	return val, true, nil
}

// Set writes to L1 and, when configured, L2.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if c.l2 != nil {
		c.l2Do(ctx, "set", key, func(ctx context.Context) error {
			return c.l2.Set(ctx, key, value, ttl)
		})
	}
	return nil
}

// Delete removes from both levels.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.l1.Delete(ctx, key); err != nil {
		return err
	}
	if c.l2 == nil {
		return nil
	}
	return c.l2.Delete(ctx, key)
}
