package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errRetryable = errors.New("transient")
var errTerminal = errors.New("terminal")

func retryableOnly(err error) bool {
	return errors.Is(err, errRetryable)
}

func TestBackoffDoubling(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1600 * time.Millisecond},
		{6, 2 * time.Second},
		{10, 2 * time.Second},
		{0, 0},
	}
	for _, tt := range tests {
		if got := p.Backoff(tt.attempt); got != tt.want {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestBackoffBaseAboveMax(t *testing.T) {
	p := Policy{BaseDelay: 5 * time.Second, MaxDelay: 1 * time.Second}
	if got := p.Backoff(1); got != 1*time.Second {
		t.Fatalf("expected max delay, got %v", got)
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	p := Policy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Classify: retryableOnly}

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	p := Policy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Classify: retryableOnly}

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errRetryable
		}
		return nil
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoTerminalErrorPropagatesImmediately(t *testing.T) {
	p := Policy{MaxRetries: 5, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Classify: retryableOnly}

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errTerminal
	})
	if !errors.Is(err, errTerminal) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	p := Policy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Classify: retryableOnly}

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errRetryable
	})
	if !errors.Is(err, errRetryable) {
		t.Fatalf("expected last retryable error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected initial attempt plus 2 retries, got %d calls", calls)
	}
}

func TestDoNilClassifyNeverRetries(t *testing.T) {
	p := Policy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

	calls := 0
	_ = p.Do(context.Background(), func(context.Context) error {
		calls++
		return errRetryable
	})
	if calls != 1 {
		t.Fatalf("expected 1 call with nil classifier, got %d", calls)
	}
}

func TestDoContextCancelAbortsBackoff(t *testing.T) {
	p := Policy{MaxRetries: 3, BaseDelay: time.Hour, MaxDelay: time.Hour, Classify: retryableOnly}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(context.Context) error {
			calls++
			return errRetryable
		})
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("do did not return after cancellation")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}
