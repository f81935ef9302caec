package llm

import (
	"context"
	"sync"
	"time"
)

// rpsLimiter spaces requests interval apart while allowing up to burst of
// them back to back. Each caller reserves the next free slot under the lock
// and then waits for it. A nil limiter never blocks.
type rpsLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	burst    int
	// due is the time the slot after the last reservation opens.
	due time.Time
	now func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

func newRPSLimiter(rps float64, burst int) *rpsLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	interval := time.Duration(float64(time.Second) / rps)
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &rpsLimiter{
		interval: interval,
		burst:    burst,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// reserve books the next slot and returns how long the caller must wait.
func (l *rpsLimiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if l.due.Before(now) {
		l.due = now
	}
	wait := l.due.Sub(now) - time.Duration(l.burst-1)*l.interval
	l.due = l.due.Add(l.interval)
	if wait < 0 {
		return 0
	}
	return wait
}

// Acquire blocks until the caller's slot opens, ctx is done or the limiter
// is stopped.
func (l *rpsLimiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-l.done:
		return context.Canceled
	default:
	}
	wait := l.reserve()
	if wait == 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return context.Canceled
	case <-t.C:
		return nil
	}
}

// Stop releases waiters. It is safe to call more than once.
func (l *rpsLimiter) Stop() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.done) })
}
