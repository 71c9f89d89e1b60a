package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/coursegen/coursegen-api/internal/generation"
)

// RetryPolicy is the pure decision layer for per-day retries: how many total
// attempts a day gets and how its failures are classified. The first retry
// waits BaseDelay, each further retry doubles it.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries per day, the first attempt
	// included. Values below 1 behave as 1.
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
}

// DefaultRetryPolicy returns the standard policy: three attempts per day,
// backoff 1s then 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// Backoff builds the backoff sequence for one day: BaseDelay, 2×BaseDelay,
// 4×BaseDelay, ... with MaxAttempts-1 retries in total.
func (p RetryPolicy) Backoff() retry.Backoff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}

	return retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(base))
}

// Classify decides whether a failed attempt is eligible for retry. It returns
// the error marked retryable for transient failures, or unwrapped for
// terminal ones so the retry loop gives up immediately.
//
// Cancellation is never retried. A safety block is a permanent rejection of
// the content and retrying it cannot succeed. Everything else, index
// mismatches and malformed responses included, is treated as transient.
func (p RetryPolicy) Classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidConfig) {
		return err
	}

	return retry.RetryableError(err)
}
