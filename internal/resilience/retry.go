// Package resilience provides the shared retry, rate-limiting, and
// concurrency primitives used around every downstream call the turn
// engine makes.
package resilience

import (
	"context"
	"time"
)

// Policy configures bounded retry with exponential backoff.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
	// Classify reports whether an error is worth retrying. Terminal
	// errors propagate immediately without consuming remaining retries.
	// A nil Classify retries nothing.
	Classify func(error) bool
}

// Backoff returns the delay before the given retry attempt (1-based):
// min(BaseDelay * 2^(attempt-1), MaxDelay). No jitter is applied.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Do runs op, retrying retryable failures up to MaxRetries times. The
// last error is returned when retries are exhausted. Context
// cancellation aborts any pending backoff wait.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, p.Backoff(attempt)); err != nil {
				return err
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Classify == nil || !p.Classify(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
