package resilience

import "context"

// Gate is a counting semaphore bounding simultaneous calls to a shared
// downstream, such as the narrative model.
type Gate struct {
	slots chan struct{}
}

// NewGate creates a gate admitting at most max concurrent holders.
// A max of zero or less yields an unbounded gate.
func NewGate(max int) *Gate {
	if max <= 0 {
		return &Gate{}
	}
	return &Gate{slots: make(chan struct{}, max)}
}

// Enter blocks until a slot is free or ctx is done.
func (g *Gate) Enter(ctx context.Context) error {
	if g == nil || g.slots == nil {
		return ctx.Err()
	}
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryEnter acquires a slot without blocking.
func (g *Gate) TryEnter() bool {
	if g == nil || g.slots == nil {
		return true
	}
	select {
	case g.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Leave releases a slot acquired by Enter or TryEnter.
func (g *Gate) Leave() {
	if g == nil || g.slots == nil {
		return
	}
	select {
	case <-g.slots:
	default:
	}
}
