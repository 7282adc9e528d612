package discourse

import (
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between starts of operations
// sharing a logical key ("topic", "post", "upload", ...). It records when an
// operation last started; it does not serialize execution, so two calls that
// have both been admitted may still overlap.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time
	now      func() time.Time
}

// NewRateLimiter creates a limiter with the given minimum inter-call interval.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		last:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// Reserve admits an operation under key, recording now as its start time.
// If the interval since the previous start has not elapsed, it returns the
// remaining wait and false without recording anything.
func (l *RateLimiter) Reserve(key string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if prev, ok := l.last[key]; ok {
		if wait := l.interval - now.Sub(prev); wait > 0 {
			return wait, false
		}
	}
	l.last[key] = now
	return 0, true
}

// Interval returns the configured minimum inter-call interval.
func (l *RateLimiter) Interval() time.Duration {
	return l.interval
}
