package selectorResolver

import (
	"context"
	"time"

	"github.com/Layr-Labs/actiontree/pkg/metrics"
	"github.com/Layr-Labs/actiontree/pkg/metrics/metricsTypes"
	"github.com/Layr-Labs/actiontree/pkg/utils"
	"go.uber.org/zap"
)

// RateLimiterState is the persisted fixed window shared by every caller.
type RateLimiterState struct {
	// StartTime is the window start in unix seconds.
	StartTime float64 `json:"start_time"`
	Count     int     `json:"count"`
}

type RateLimiterConfig struct {
	StatePath string
	Limit     int
	Period    time.Duration
}

type Clock func() time.Time

type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// RateLimiter admits at most Limit callers per fixed window of Period, across every
// process sharing the state file. Callers over the limit wait for the next window.
type RateLimiter struct {
	config      *RateLimiterConfig
	lock        *utils.FileLock
	now         Clock
	sleep       Sleeper
	metricsSink *metrics.MetricsSink
	logger      *zap.Logger
}

func NewRateLimiter(cfg *RateLimiterConfig, ms *metrics.MetricsSink, l *zap.Logger) *RateLimiter {
	return &RateLimiter{
		config:      cfg,
		lock:        utils.NewFileLock(cfg.StatePath + ".lock"),
		now:         time.Now,
		sleep:       sleepContext,
		metricsSink: ms,
		logger:      l,
	}
}

// SetClock replaces the time source and sleep function.
func (rl *RateLimiter) SetClock(now Clock, sleep Sleeper) {
	rl.now = now
	rl.sleep = sleep
}

// Wait blocks until the caller may make one request. It only returns early when ctx
// is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	started := rl.now()
	for {
		wait, err := rl.tryAcquire(ctx)
		if err != nil {
			return err
		}
		if wait <= 0 {
			if waited := rl.now().Sub(started); waited > 0 {
				_ = rl.metricsSink.Timing(metricsTypes.Metric_Timing_RateLimitWait, waited, nil)
			}
			return nil
		}
		rl.logger.Sugar().Debugw("Rate limit reached, waiting for the next window",
			zap.Duration("wait", wait),
			zap.Int("limit", rl.config.Limit),
		)
		if err := rl.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryAcquire takes a slot in the current window, or returns how long until the
// window resets. The lock is released before the caller sleeps.
func (rl *RateLimiter) tryAcquire(ctx context.Context) (time.Duration, error) {
	var wait time.Duration
	err := rl.lock.With(ctx, func() error {
		now := unixSeconds(rl.now())
		period := rl.config.Period.Seconds()

		state := &RateLimiterState{}
		found, err := utils.ReadJsonFile(rl.config.StatePath, state)
		if err != nil {
			return err
		}
		if !found || now-state.StartTime >= period {
			state = &RateLimiterState{StartTime: now, Count: 0}
		}

		if state.Count < rl.config.Limit {
			state.Count++
			return utils.WriteJsonFile(rl.config.StatePath, state)
		}

		wait = time.Duration((state.StartTime + period - now) * float64(time.Second))
		if wait <= 0 {
			wait = time.Millisecond
		}
		return nil
	})
	return wait, err
}

// State reads the persisted window.
func (rl *RateLimiter) State(ctx context.Context) (*RateLimiterState, error) {
	state := &RateLimiterState{}
	err := rl.lock.With(ctx, func() error {
		_, err := utils.ReadJsonFile(rl.config.StatePath, state)
		return err
	})
	return state, err
}

// Reset starts a new, empty window.
func (rl *RateLimiter) Reset(ctx context.Context) error {
	return rl.lock.With(ctx, func() error {
		return utils.WriteJsonFile(rl.config.StatePath, &RateLimiterState{StartTime: unixSeconds(rl.now())})
	})
}
