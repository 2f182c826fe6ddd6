package trapper

import (
	"context"
	"time"
)

// throttle enforces a minimum interval between connection attempts.
// The attempt time is recorded after every attempt, failed ones included, so
// back-to-back sends and retries are both spaced out.
type throttle struct {
	interval time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newThrottle(interval time.Duration, now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) *throttle {
	return &throttle{
		interval: interval,
		now:      now,
		sleep:    sleep,
	}
}

// wait sleeps for the remainder of the interval since the last attempt.
func (t *throttle) wait(ctx context.Context) error {
	if t.interval <= 0 || t.last.IsZero() {
		return nil
	}

	remaining := t.interval - t.now().Sub(t.last)
	if remaining <= 0 {
		return nil
	}
	return t.sleep(ctx, remaining)
}

// mark records the end of an attempt.
func (t *throttle) mark() {
	t.last = t.now()
}

// sleepContext sleeps for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// retryBackoff returns the pause before the given attempt (1-based).
// The first attempt never waits; each retry doubles the base, up to maxRetryBackoff.
func retryBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 || attempt <= 1 {
		return 0
	}

	d := base
	for i := 2; i < attempt; i++ {
		d *= 2
		if d >= maxRetryBackoff {
			return maxRetryBackoff
		}
	}
	return min(d, maxRetryBackoff)
}
