package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Delay pauses for a fixed duration on every Wait, optionally stretched by a
// random jitter up to maxJitter.
type Delay struct {
	delay     time.Duration
	maxJitter time.Duration
	mu        sync.Mutex
}

func NewDelay(delay time.Duration) *Delay {
	return &Delay{delay: delay}
}

func (d *Delay) WithJitter(max time.Duration) *Delay {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.maxJitter = max
	return d
}

func (d *Delay) Wait(ctx context.Context) error {
	d.mu.Lock()
	wait := d.calculateDelay()
	d.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
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

func (d *Delay) calculateDelay() time.Duration {
	if d.maxJitter <= 0 {
		return d.delay
	}
	return d.delay + time.Duration(rand.Int63n(int64(d.maxJitter)))
}
