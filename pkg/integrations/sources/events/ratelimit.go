package events

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// eventRateLimiter enforces a provider's daily request quota client-side.
type eventRateLimiter struct {
	mu         sync.Mutex
	requests   []time.Time
	limit      int
	windowSize time.Duration
	clock      clockwork.Clock
}

func newEventRateLimiter(dailyLimit int, clock clockwork.Clock) *eventRateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &eventRateLimiter{
		requests:   make([]time.Time, 0),
		limit:      dailyLimit,
		windowSize: 24 * time.Hour,
		clock:      clock,
	}
}

// Allow records a request and reports whether it fits in the current window.
// A limiter with no limit always allows.
func (r *eventRateLimiter) Allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()

	// Remove requests older than window
	cutoff := now.Add(-r.windowSize)
	validRequests := r.requests[:0]
	for _, reqTime := range r.requests {
		if reqTime.After(cutoff) {
			validRequests = append(validRequests, reqTime)
		}
	}
	r.requests = validRequests

	if len(r.requests) >= r.limit {
		return false
	}

	r.requests = append(r.requests, now)
	return true
}
