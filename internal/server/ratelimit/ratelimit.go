// Package ratelimit implements fixed-window attempt counters used to throttle
// login attempts per client address.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter counts one attempt under key and reports whether it is within the
// allowed budget for the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type window struct {
	start time.Time
	count int
}

// MemoryLimiter keeps counters in process memory. Expired windows are
// dropped lazily on the next sweep.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	windows map[string]*window
	now     func() time.Time

	lastSweep time.Time
}

func NewMemoryLimiter(limit int, period time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		period:  period,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		w = &window{start: now}
		l.windows[key] = w
	}
	w.count++
	return w.count <= l.limit, nil
}

// sweep removes expired windows at most once per period. Caller holds mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.period {
		return
	}
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.period {
			delete(l.windows, k)
		}
	}
	l.lastSweep = now
}
