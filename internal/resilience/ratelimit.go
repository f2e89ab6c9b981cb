package resilience

import (
	"sync"
	"time"
)

// RateLimiter is a per-key token bucket. Capacity equals the configured
// rate in tokens per second; refill is computed lazily from elapsed
// wall-clock time on each Acquire call.
type RateLimiter struct {
	mu      sync.Mutex
	rate    float64
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a limiter allowing rate acquisitions per second
// per key. A rate of zero or less disables limiting entirely.
func NewRateLimiter(rate float64) *RateLimiter {
	return &RateLimiter{
		rate:    rate,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Acquire consumes one token for key, reporting whether the caller may
// proceed. The first acquisition for a key seeds the bucket at
// capacity - 1 rather than a full bucket, so a cold key cannot burst
// through its full allowance and then starve.
func (l *RateLimiter) Acquire(key string) bool {
	if l == nil || l.rate <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{
			tokens:     l.rate - 1,
			lastRefill: now,
		}
		return true
	}

	// Lazy refill. Advancing lastRefill is correct here even when the
	// acquire below fails: the elapsed interval has been credited.
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * l.rate
		if b.tokens > l.rate {
			b.tokens = l.rate
		}
		b.lastRefill = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
