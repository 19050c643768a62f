package retry

import (
	"context"
	"time"
)

// Do runs fn up to attempts times, sleeping baseDelay*2^n between tries.
// A failure is retried only when isRetryable reports it as such; anything
// else aborts immediately with that error. Context cancellation wins over
// the remaining attempts.
func Do(ctx context.Context, attempts int, baseDelay time.Duration, isRetryable func(error) bool, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}

		delay := baseDelay << uint(attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}
