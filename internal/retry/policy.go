package retry

import (
	"context"
	"fmt"
	"time"
)

// Backoff selects how the delay between attempts grows.
type Backoff string

const (
	BackoffConstant    Backoff = "constant"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

// Policy describes how many times an operation is attempted and how long to
// wait after a failed attempt.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	Interval    time.Duration
}

// DefaultPolicy returns three attempts with no delay in between.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     BackoffConstant,
		Interval:    0,
	}
}

// Attempts returns the number of attempts, never less than one.
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if p.Interval <= 0 || attempt < 1 {
		return 0
	}

	switch p.Backoff {
	case BackoffLinear:
		return time.Duration(attempt) * p.Interval
	case BackoffExponential:
		return p.Interval << (attempt - 1)
	default:
		return p.Interval
	}
}

// Exhaust runs fn for every attempt, even after a success, and returns the
// error of the final attempt. It stops early only when ctx is done.
func (p Policy) Exhaust(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	var err error
	attempts := p.Attempts()

	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("attempt %d of %d: %w", attempt, attempts, ctxErr)
		}

		err = fn(ctx, attempt)
		if err == nil || attempt == attempts {
			continue
		}

		if sleepErr := Sleep(ctx, p.Delay(attempt)); sleepErr != nil {
			return sleepErr
		}
	}

	return err
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
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
