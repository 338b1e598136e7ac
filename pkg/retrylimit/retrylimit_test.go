package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond
	cfg.RateLimitDelay = time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &StatusError{Code: 503}
		}
		return nil
	}, NewAdaptiveLimiter(100, 1, 100, 1, 0.5), fastConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnFatal(t *testing.T) {
	calls := 0
	boom := errors.New("bad request")
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return Fatal(boom)
	}, nil, fastConfig(5))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return &StatusError{Code: 500}
	}, nil, fastConfig(3))

	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, 500, status.StatusCode())
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, func() error { return nil }, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdaptiveLimiter_Bounds(t *testing.T) {
	lim := NewAdaptiveLimiter(8, 2, 10, 1, 0.5)

	lim.RateLimited()
	assert.Equal(t, 4.0, lim.CurrentLimit())
	lim.RateLimited()
	lim.RateLimited()
	assert.Equal(t, 2.0, lim.CurrentLimit())

	// Success right after an error does not raise the rate.
	lim.Success()
	assert.Equal(t, 2.0, lim.CurrentLimit())
}
