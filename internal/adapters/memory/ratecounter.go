package memory

import (
	"context"
	"sync"
	"time"
)

// RateCounter implements ports.RateCounter with fixed windows held in memory.
// Counts are per process.
type RateCounter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count     int64
	expiresAt time.Time
}

// NewRateCounter creates an empty counter.
func NewRateCounter() *RateCounter {
	return &RateCounter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Increment adds one to key and returns the new count. The counter starts
// over once window has elapsed since the first increment.
func (c *RateCounter) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	w, ok := c.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		w = &window{expiresAt: now.Add(ttl)}
		c.windows[key] = w
		c.sweepLocked(now)
	}
	w.count++
	return w.count, nil
}

// sweepLocked drops expired windows so keys from past periods do not pile up.
func (c *RateCounter) sweepLocked(now time.Time) {
	for k, w := range c.windows {
		if !now.Before(w.expiresAt) {
			delete(c.windows, k)
		}
	}
}
