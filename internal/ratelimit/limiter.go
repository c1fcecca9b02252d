package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Rule - лимит действий на окно
type Rule struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter applies a per-key sliding window. A call that is allowed is counted
// against the window; a rejected one is not.
type Limiter interface {
	Allow(ctx context.Context, key string, rule Rule) (Decision, error)
}

// Key строит ключ лимита: действие + идентичность
func Key(action, identity string) string {
	return action + ":" + identity
}

// MemoryLimiter keeps hit timestamps in process memory.
type MemoryLimiter struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		hits: make(map[string][]time.Time),
		now:  time.Now,
	}
}

// WithClock подменяет часы (для тестов)
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, rule Rule) (Decision, error) {
	if rule.Limit <= 0 {
		return Decision{Allowed: true}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-rule.Window)

	window := l.hits[key]
	i := 0
	for i < len(window) && !window[i].After(cutoff) {
		i++
	}
	window = window[i:]

	if len(window) >= rule.Limit {
		l.hits[key] = window
		return Decision{
			Allowed:    false,
			RetryAfter: window[0].Add(rule.Window).Sub(now),
		}, nil
	}

	window = append(window, now)
	l.hits[key] = window
	return Decision{Allowed: true, Remaining: rule.Limit - len(window)}, nil
}

// Prune drops keys whose every hit is older than maxAge.
func (l *MemoryLimiter) Prune(maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-maxAge)
	removed := 0
	for key, window := range l.hits {
		if len(window) == 0 || !window[len(window)-1].After(cutoff) {
			delete(l.hits, key)
			removed++
		}
	}
	return removed
}

// Cleanup matches StoreLimiter.Cleanup so both can be swept by the same worker.
func (l *MemoryLimiter) Cleanup(_ context.Context, maxAge time.Duration) (int64, error) {
	return int64(l.Prune(maxAge)), nil
}
