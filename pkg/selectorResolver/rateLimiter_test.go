package selectorResolver

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Layr-Labs/actiontree/pkg/metrics"
	"github.com/stretchr/testify/assert"
)

// fakeClock advances only when something sleeps on it.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (fc *fakeClock) Now() time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.now
}

func (fc *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.sleeps = append(fc.sleeps, d)
	fc.now = fc.now.Add(d)
	return nil
}

func (fc *fakeClock) Sleeps() []time.Duration {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]time.Duration{}, fc.sleeps...)
}

func newTestRateLimiter(t *testing.T, path string, clock *fakeClock) *RateLimiter {
	rl := NewRateLimiter(&RateLimiterConfig{
		StatePath: path,
		Limit:     10,
		Period:    45 * time.Second,
	}, metrics.NewNoopMetricsSink(), newTestLogger(t))
	rl.SetClock(clock.Now, clock.Sleep)
	return rl
}

func Test_RateLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("Should admit ten calls per window and block the eleventh", func(t *testing.T) {
		clock := newFakeClock()
		rl := newTestRateLimiter(t, filepath.Join(t.TempDir(), "rate_limit.json"), clock)
		start := clock.Now()

		proceeded := make([]time.Duration, 0, 15)
		for i := 0; i < 15; i++ {
			assert.Nil(t, rl.Wait(ctx))
			proceeded = append(proceeded, clock.Now().Sub(start))
		}

		for i := 0; i < 10; i++ {
			assert.Equal(t, time.Duration(0), proceeded[i], "call %d", i)
		}
		for i := 10; i < 15; i++ {
			assert.Equal(t, 45*time.Second, proceeded[i], "call %d", i)
		}
		assert.Equal(t, []time.Duration{45 * time.Second}, clock.Sleeps())

		state, err := rl.State(ctx)
		assert.Nil(t, err)
		assert.Equal(t, 5, state.Count)
		assert.Equal(t, float64(start.Add(45*time.Second).Unix()), state.StartTime)
	})
	t.Run("Should share the window between limiters on the same file", func(t *testing.T) {
		clock := newFakeClock()
		path := filepath.Join(t.TempDir(), "rate_limit.json")
		a := newTestRateLimiter(t, path, clock)
		b := newTestRateLimiter(t, path, clock)

		for i := 0; i < 6; i++ {
			assert.Nil(t, a.Wait(ctx))
		}
		for i := 0; i < 4; i++ {
			assert.Nil(t, b.Wait(ctx))
		}
		assert.Empty(t, clock.Sleeps())

		assert.Nil(t, b.Wait(ctx))
		assert.Equal(t, []time.Duration{45 * time.Second}, clock.Sleeps())
	})
	t.Run("Should never exceed the limit under concurrency", func(t *testing.T) {
		clock := newFakeClock()
		rl := newTestRateLimiter(t, filepath.Join(t.TempDir(), "rate_limit.json"), clock)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.Nil(t, rl.Wait(ctx))
			}()
		}
		wg.Wait()

		state, err := rl.State(ctx)
		assert.Nil(t, err)
		assert.Equal(t, 10, state.Count)
		assert.Empty(t, clock.Sleeps())
	})
	t.Run("Should wait only for the rest of the window", func(t *testing.T) {
		clock := newFakeClock()
		rl := newTestRateLimiter(t, filepath.Join(t.TempDir(), "rate_limit.json"), clock)

		for i := 0; i < 10; i++ {
			assert.Nil(t, rl.Wait(ctx))
		}
		assert.Nil(t, clock.Sleep(ctx, 30*time.Second))
		assert.Nil(t, rl.Wait(ctx))

		assert.Equal(t, []time.Duration{30 * time.Second, 15 * time.Second}, clock.Sleeps())
	})
	t.Run("Should stop waiting when the context is cancelled", func(t *testing.T) {
		clock := newFakeClock()
		rl := newTestRateLimiter(t, filepath.Join(t.TempDir(), "rate_limit.json"), clock)
		for i := 0; i < 10; i++ {
			assert.Nil(t, rl.Wait(ctx))
		}

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, rl.Wait(cancelled), context.Canceled)
	})
	t.Run("Should start a fresh window on reset", func(t *testing.T) {
		clock := newFakeClock()
		rl := newTestRateLimiter(t, filepath.Join(t.TempDir(), "rate_limit.json"), clock)
		for i := 0; i < 10; i++ {
			assert.Nil(t, rl.Wait(ctx))
		}
		assert.Nil(t, rl.Reset(ctx))
		assert.Nil(t, rl.Wait(ctx))
		assert.Empty(t, clock.Sleeps())
	})
}
