package ratelimit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"qaforum_backend/internal/ratelimit"
	"qaforum_backend/internal/repositories"
	"qaforum_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func limiters(t *testing.T, clock *testutil.Clock) map[string]ratelimit.Limiter {
	db := testutil.NewTestDB(t)
	return map[string]ratelimit.Limiter{
		"memory": ratelimit.NewMemoryLimiter().WithClock(clock.Now),
		"store":  ratelimit.NewStoreLimiter(db, repositories.NewRateLimitRepository()).WithClock(clock.Now),
	}
}

func TestLimiter_SlidingWindow(t *testing.T) {
	clock := testutil.NewClock(start)
	rule := ratelimit.Rule{Limit: 3, Window: time.Minute}

	for name, limiter := range limiters(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := ratelimit.Key("vote", "user-"+name)

			for i := 0; i < 3; i++ {
				d, err := limiter.Allow(ctx, key, rule)
				require.NoError(t, err)
				assert.True(t, d.Allowed, "hit %d should pass", i+1)
				assert.Equal(t, 2-i, d.Remaining)
			}

			d, err := limiter.Allow(ctx, key, rule)
			require.NoError(t, err)
			assert.False(t, d.Allowed)
			assert.Equal(t, time.Minute, d.RetryAfter)

			// другой ключ не затронут
			other, err := limiter.Allow(ctx, ratelimit.Key("answer", "user-"+name), rule)
			require.NoError(t, err)
			assert.True(t, other.Allowed)
		})
	}
}

func TestLimiter_WindowSlides(t *testing.T) {
	rule := ratelimit.Rule{Limit: 2, Window: time.Minute}

	for _, name := range []string{"memory", "store"} {
		t.Run(name, func(t *testing.T) {
			clock := testutil.NewClock(start)
			limiter := limiters(t, clock)[name]
			ctx := context.Background()
			key := ratelimit.Key("comment", "u1")

			d, _ := limiter.Allow(ctx, key, rule)
			require.True(t, d.Allowed)
			clock.Advance(30 * time.Second)
			d, _ = limiter.Allow(ctx, key, rule)
			require.True(t, d.Allowed)

			d, _ = limiter.Allow(ctx, key, rule)
			require.False(t, d.Allowed)
			assert.Equal(t, 30*time.Second, d.RetryAfter)

			// первый хит выпадает из окна
			clock.Advance(31 * time.Second)
			d, err := limiter.Allow(ctx, key, rule)
			require.NoError(t, err)
			assert.True(t, d.Allowed)
		})
	}
}

func TestLimiter_ZeroLimitDisables(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	for i := 0; i < 100; i++ {
		d, err := limiter.Allow(context.Background(), "k", ratelimit.Rule{Limit: 0, Window: time.Minute})
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
}

func TestLimiter_ConcurrentCallersNeverExceedLimit(t *testing.T) {
	clock := testutil.NewClock(start)
	rule := ratelimit.Rule{Limit: 5, Window: time.Minute}

	for name, limiter := range limiters(t, clock) {
		t.Run(name, func(t *testing.T) {
			var allowed int32
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					d, err := limiter.Allow(context.Background(), "vote:same-user", rule)
					if err == nil && d.Allowed {
						atomic.AddInt32(&allowed, 1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(5), atomic.LoadInt32(&allowed))
		})
	}
}

func TestMemoryLimiter_Prune(t *testing.T) {
	clock := testutil.NewClock(start)
	limiter := ratelimit.NewMemoryLimiter().WithClock(clock.Now)
	rule := ratelimit.Rule{Limit: 1, Window: time.Minute}

	_, _ = limiter.Allow(context.Background(), "a", rule)
	clock.Advance(2 * time.Minute)
	_, _ = limiter.Allow(context.Background(), "b", rule)

	assert.Equal(t, 1, limiter.Prune(time.Minute))
}

func TestStoreLimiter_Cleanup(t *testing.T) {
	clock := testutil.NewClock(start)
	db := testutil.NewTestDB(t)
	limiter := ratelimit.NewStoreLimiter(db, repositories.NewRateLimitRepository()).WithClock(clock.Now)
	rule := ratelimit.Rule{Limit: 10, Window: time.Minute}

	for i := 0; i < 3; i++ {
		_, err := limiter.Allow(context.Background(), "vote:u", rule)
		require.NoError(t, err)
	}
	clock.Advance(5 * time.Minute)

	removed, err := limiter.Cleanup(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
}
