package fetch

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds a retry loop: a fixed attempt budget with a fixed delay
// before every attempt, plus exponential backoff when the backend answers 429.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// rateLimited is implemented by upstream errors carrying an HTTP 429.
type rateLimited interface {
	IsRateLimited() bool
}

// retry runs fn up to policy.MaxAttempts times. Fatal errors stop the loop
// immediately. Rate-limited attempts wait 2^attempt * 100ms instead of the
// fixed delay.
func retry[T any](ctx context.Context, policy RetryPolicy, fatal func(error) bool, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := sleepCtx(ctx, attemptDelay(policy, lastErr, attempt)); err != nil {
			return zero, err
		}
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if fatal != nil && fatal(err) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}

func attemptDelay(policy RetryPolicy, lastErr error, attempt int) time.Duration {
	var limited rateLimited
	if errors.As(lastErr, &limited) && limited.IsRateLimited() {
		return rateLimitBackoff(attempt)
	}
	return policy.Delay
}

// rateLimitBackoff returns the 429 wait for an attempt about to run:
// 200ms, 400ms, 800ms, ...
func rateLimitBackoff(attempt int) time.Duration {
	backoff := 100 * time.Millisecond
	for i := 0; i < attempt; i++ {
		backoff *= 2
	}
	return backoff
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
