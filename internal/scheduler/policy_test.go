package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursegen/coursegen-api/internal/generation"
)

func TestClassifyTransientErrorsRetryable(t *testing.T) {
	p := DefaultRetryPolicy()

	transient := []error{
		errors.New("network down"),
		fmt.Errorf("%w: 503", generation.ErrTransientFailure),
		fmt.Errorf("%w: got 4 want 3", generation.ErrIndexMismatch),
		fmt.Errorf("%w: bad JSON", generation.ErrInvalidResponse),
	}

	for _, err := range transient {
		classified := p.Classify(err)
		// A retryable error keeps retry.Do going.
		attempts := 0
		doErr := retry.Do(context.Background(), retry.WithMaxRetries(1, retry.NewConstant(time.Millisecond)),
			func(ctx context.Context) error {
				attempts++
				return p.Classify(err)
			})
		require.Error(t, doErr)
		assert.Equal(t, 2, attempts, "expected a retry for %v", err)
		assert.ErrorIs(t, classified, err)
	}
}

func TestClassifyTerminalErrorsNotRetried(t *testing.T) {
	p := DefaultRetryPolicy()

	terminal := []error{
		context.Canceled,
		fmt.Errorf("%w: safety", generation.ErrContentBlocked),
		fmt.Errorf("%w: no API key", generation.ErrInvalidConfig),
	}

	for _, err := range terminal {
		attempts := 0
		doErr := retry.Do(context.Background(), retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond)),
			func(ctx context.Context) error {
				attempts++
				return p.Classify(err)
			})
		require.Error(t, doErr)
		assert.Equal(t, 1, attempts, "expected no retry for %v", err)
	}
}

func TestClassifyNilError(t *testing.T) {
	assert.NoError(t, DefaultRetryPolicy().Classify(nil))
}

func TestBackoffAttemptBudget(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	attempts := 0
	err := retry.Do(context.Background(), p.Backoff(), func(ctx context.Context) error {
		attempts++
		return retry.RetryableError(errors.New("still failing"))
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestBackoffDoubles(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: 20 * time.Millisecond}

	start := time.Now()
	_ = retry.Do(context.Background(), p.Backoff(), func(ctx context.Context) error {
		return retry.RetryableError(errors.New("still failing"))
	})

	// Two waits: base + 2×base.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestBackoffGuardsDegenerateConfig(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 0, BaseDelay: 0}

	attempts := 0
	_ = retry.Do(context.Background(), p.Backoff(), func(ctx context.Context) error {
		attempts++
		return retry.RetryableError(errors.New("still failing"))
	})

	assert.Equal(t, 1, attempts)
}
