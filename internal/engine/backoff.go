package engine

import (
	"context"
	"time"

	"github.com/shaiso/Harvest/internal/domain"
)

// Backoff вычисляет задержку после неудачной попытки attempt.
func Backoff(attempt int, policy domain.RetryPolicy) time.Duration {
	initialDelay := policy.InitialDelay
	if initialDelay < 0 {
		initialDelay = 0
	}

	maxDelay := policy.MaxDelay
	if maxDelay <= 0 {
		maxDelay = time.Minute
	}

	var delay time.Duration
	switch policy.Backoff {
	case domain.BackoffExponential:
		// delay = initialDelay * 2^(attempt-1)
		delay = initialDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
				break
			}
		}
	default:
		delay = initialDelay
	}

	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// sleepContext ждёт d или отмены ctx.
func sleepContext(ctx context.Context, d time.Duration) error {
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
