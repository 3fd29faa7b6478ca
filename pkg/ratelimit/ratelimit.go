package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter paces operations to a target rate, with optional random jitter so
// request timing doesn't look machine-regular. It is safe for concurrent use
// by multiple goroutines.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	jitter   float64 // 0.0 to 1.0
	next     time.Time
}

// NewLimiter creates a limiter allowing rps operations per second. Jitter is
// the fraction of the interval to randomize (clamped to [0, 1]). If rps <= 0
// the limiter never blocks.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}
	return &Limiter{
		interval: time.Duration(float64(time.Second) / rps),
		jitter:   jitter,
	}
}

// Wait blocks until the next operation is allowed, or until the context is
// canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval == 0 {
		return nil
	}

	l.mu.Lock()
	now := time.Now()
	if l.next.Before(now) {
		l.next = now
	}
	wait := l.next.Sub(now)

	step := l.interval
	if l.jitter > 0 {
		// random factor in [-jitter, +jitter] applied to the interval
		f := (rand.Float64()*2 - 1) * l.jitter
		step += time.Duration(float64(l.interval) * f)
	}
	l.next = l.next.Add(step)
	l.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
