// Package resilience guards calls to optional remote dependencies.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Do while the breaker is rejecting calls.
var ErrOpen = errors.New("circuit breaker is open")

// Breaker stops calling a remote dependency after a run of consecutive
// failures. Once cooldown has passed a single probe call is let through; its
// outcome closes or re-opens the breaker. Context cancellation is not
// counted as a failure of the dependency.
type Breaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	failures int
	openedAt time.Time // zero while closed
	probing  bool
}

// NewBreaker creates a breaker that opens after threshold consecutive
// failures. A threshold below 1 is treated as 1.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold: max(threshold, 1),
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Do calls fn unless the breaker is open.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if !b.acquire() {
		return ErrOpen
	}
	err := fn(ctx)
	b.record(err)
	return err
}

// Open reports whether calls are currently being rejected.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.openedAt.IsZero() && (b.probing || b.now().Sub(b.openedAt) < b.cooldown)
}

func (b *Breaker) acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openedAt.IsZero() {
		return true
	}
	if b.probing || b.now().Sub(b.openedAt) < b.cooldown {
		return false
	}
	b.probing = true
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	wasProbe := b.probing
	b.probing = false

	switch {
	case err == nil:
		b.failures = 0
		b.openedAt = time.Time{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// the caller gave up; leave the state as it was
	default:
		b.failures++
		if wasProbe || b.failures >= b.threshold {
			b.openedAt = b.now()
		}
	}
}
