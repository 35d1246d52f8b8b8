// Package retry provides the fixed-backoff retry policy shared by the
// submission pipeline and the sync write path.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Permanent wraps an error that must not be retried, such as an authorization
// failure or a stale version token. Do returns it unwrapped immediately.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string {
	return p.Err.Error()
}

func (p *Permanent) Unwrap() error {
	return p.Err
}

// Do calls fn up to attempts times, sleeping delay between attempts. There is
// no mid-flight cancellation beyond ctx expiring during the backoff sleep.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		var perm *Permanent
		if errors.As(err, &perm) {
			return perm.Err
		}

		if attempt == attempts {
			break
		}

		zap.L().Warn("attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry interrupted -> %w", ctx.Err())
		}
	}

	return fmt.Errorf("all %v attempts failed -> %w", attempts, err)
}
