package ratelimit

import (
	"context"
	"time"

	"qaforum_backend/internal/repositories"

	"gorm.io/gorm"
)

// StoreLimiter shares the window between processes through the database.
// The bucket row lock serializes concurrent checks on the same key.
type StoreLimiter struct {
	db   *gorm.DB
	repo repositories.RateLimitRepository
	now  func() time.Time
}

func NewStoreLimiter(db *gorm.DB, repo repositories.RateLimitRepository) *StoreLimiter {
	return &StoreLimiter{db: db, repo: repo, now: time.Now}
}

func (l *StoreLimiter) WithClock(now func() time.Time) *StoreLimiter {
	l.now = now
	return l
}

func (l *StoreLimiter) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	if rule.Limit <= 0 {
		return Decision{Allowed: true}, nil
	}

	var decision Decision
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := l.now()
		cutoff := now.Add(-rule.Window)

		if err := l.repo.LockBucket(tx, key, now); err != nil {
			return err
		}

		count, err := l.repo.CountHitsSince(tx, key, cutoff)
		if err != nil {
			return err
		}

		if int(count) >= rule.Limit {
			oldest, err := l.repo.OldestHitSince(tx, key, cutoff)
			if err != nil {
				return err
			}
			decision = Decision{Allowed: false, RetryAfter: oldest.Add(rule.Window).Sub(now)}
			return nil
		}

		if err := l.repo.AddHit(tx, key, now); err != nil {
			return err
		}
		decision = Decision{Allowed: true, Remaining: rule.Limit - int(count) - 1}
		return nil
	})
	return decision, err
}

// Cleanup removes hits older than maxAge; called by the maintenance worker.
func (l *StoreLimiter) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	return l.repo.DeleteHitsBefore(l.db.WithContext(ctx), l.now().Add(-maxAge))
}
