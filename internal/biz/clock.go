package biz

import (
	"context"
	"time"
)

// Clock abstracts wall-clock reads so cooldown and circuit breaker timing
// can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// Sleeper abstracts the backoff sleep between retry attempts. The real
// implementation respects context cancellation; tests substitute a fake
// to assert delays without waiting.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type systemSleeper struct{}

func (systemSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
