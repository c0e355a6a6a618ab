package gate

import (
	"sync"
	"time"
)

// denyLimiter is a sliding-window counter over denials. Once the limit is
// reached, tripped() reports true until enough old denials age out of the
// window. A repeatedly-denied agent burning through variations of the same
// command gets cut off instead of hammering the operator.
type denyLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	times  []time.Time
	now    func() time.Time
}

func newDenyLimiter(limit, windowSeconds int) *denyLimiter {
	return &denyLimiter{
		limit:  limit,
		window: time.Duration(windowSeconds) * time.Second,
		now:    time.Now,
	}
}

// record notes one denial and reports whether this denial reached the limit.
func (l *denyLimiter) record() bool {
	if l.limit <= 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune()
	l.times = append(l.times, l.now())
	return len(l.times) == l.limit
}

// tripped reports whether the denial count within the window is at the limit.
func (l *denyLimiter) tripped() bool {
	if l.limit <= 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune()
	return len(l.times) >= l.limit
}

// prune drops denials older than the window. Caller holds mu.
func (l *denyLimiter) prune() {
	cutoff := l.now().Add(-l.window)
	kept := l.times[:0]
	for _, t := range l.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.times = kept
}
