package engine

import (
	"context"
	"errors"
	"time"

	"candle-bot/internal/interfaces"
	"candle-bot/internal/logger"
)

// FetchDelay is how long after a candle boundary the cycle fires, so the
// provider has the just-closed candle available.
const FetchDelay = 2 * time.Second

// NextBoundary returns the first multiple of period at or after now.
func NextBoundary(now time.Time, period time.Duration) time.Time {
	p := period.Nanoseconds()
	ns := now.UnixNano()
	b := ns / p * p
	if b < ns {
		b += p
	}
	return time.Unix(0, b).In(now.Location())
}

// NextFetchTime is NextBoundary plus FetchDelay.
func NextFetchTime(now time.Time, period time.Duration) time.Time {
	return NextBoundary(now, period).Add(FetchDelay)
}

// Scheduler fires one cycle shortly after every candle boundary.
type Scheduler struct {
	engine interfaces.Engine
	stats  *Stats
	period time.Duration

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

func NewScheduler(eng interfaces.Engine, stats *Stats, period time.Duration) *Scheduler {
	return &Scheduler{
		engine: eng,
		stats:  stats,
		period: period,
		now:    time.Now,
		wait:   sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run loops until ctx is cancelled or a cycle reports ErrStopped. A
// cancelled context is a clean exit and returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	logger.Info(ctx, "Scheduler started", "period", s.period.String())

	for {
		now := s.now()
		fireAt := NextFetchTime(now, s.period)
		delay := fireAt.Sub(now)

		s.stats.setWaiting(fireAt)
		logger.Info(ctx, "Next candle close",
			"candle_close", fireAt.Add(-FetchDelay).UTC().Format(time.RFC3339),
			"fetch_at", fireAt.UTC().Format(time.RFC3339),
			"wait_s", int64(delay.Round(time.Second)/time.Second),
		)

		if err := s.wait(ctx, delay); err != nil {
			s.stats.setState(StateIdle)
			logger.Info(ctx, "Scheduler stopped", "reason", err.Error())
			return nil
		}

		if _, err := s.engine.RunCycle(ctx); err != nil {
			if errors.Is(err, ErrStopped) {
				return err
			}
			if ctx.Err() != nil {
				s.stats.setState(StateIdle)
				return nil
			}
			logger.Warn(ctx, "Cycle failed, waiting for next candle", "error", err.Error())
		}
	}
}

func (s *Scheduler) State() State {
	return s.stats.State()
}
