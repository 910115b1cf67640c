package hub

import (
	"sync"
	"time"
)

type limiterEntry struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed-window counter keyed by connection id.
type RateLimiter struct {
	mu      sync.Mutex
	points  int
	window  time.Duration
	entries map[string]*limiterEntry
	now     func() time.Time
}

func NewRateLimiter(points int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		points:  points,
		window:  window,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

// Allow consumes one point for key and reports whether the event may proceed.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok || now.After(entry.resetAt) {
		l.entries[key] = &limiterEntry{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	if entry.count >= l.points {
		return false
	}
	entry.count++
	return true
}

func (l *RateLimiter) Forget(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// Sweep drops entries whose window has passed and returns how many were removed.
func (l *RateLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, entry := range l.entries {
		if now.After(entry.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
