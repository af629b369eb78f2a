package poll

import (
	"context"
	"errors"
	"time"
)

var ErrTimeout = errors.New("condition not met before the attempt limit")

type Options struct {
	Interval    time.Duration
	MaxAttempts int
}

type Predicate func(ctx context.Context) (bool, error)

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Until evaluates `predicate` up to MaxAttempts times, waiting Interval
// between attempts. it returns nil once the predicate holds, ErrTimeout
// when attempts run out, and the predicate's own error otherwise.
func Until(ctx context.Context, opts Options, predicate Predicate) error {
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		if i > 0 {
			err := Sleep(ctx, opts.Interval)
			if err != nil {
				return err
			}
		}
		ok, err := predicate(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrTimeout
}
