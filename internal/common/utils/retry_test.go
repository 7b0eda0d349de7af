package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	assert.Equal(t, 3, config.MaxAttempts)
	assert.Equal(t, 1*time.Second, config.InitialDelay)
	assert.Equal(t, 30*time.Second, config.MaxDelay)
	assert.Equal(t, 2.0, config.BackoffFactor)
	assert.Equal(t, 0.1, config.JitterFactor)
	assert.Nil(t, config.RetryableErrors)
}

func TestRetryWithBackoff_Success(t *testing.T) {
	config := DefaultRetryConfig()
	config.InitialDelay = 10 * time.Millisecond

	attempts := 0
	err := RetryWithBackoff(context.Background(), config, func() error {
		attempts++
		if attempts < 2 {
			return errors.New("server selection timeout")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoff_AllAttemptsFail(t *testing.T) {
	config := DefaultRetryConfig()
	config.InitialDelay = 10 * time.Millisecond

	attempts := 0
	testError := errors.New("connection refused")

	err := RetryWithBackoff(context.Background(), config, func() error {
		attempts++
		return testError
	})

	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.ErrorIs(t, err, testError)
}

func TestRetryWithBackoff_NonRetryableError(t *testing.T) {
	config := DefaultRetryConfig()
	config.InitialDelay = 10 * time.Millisecond
	config.RetryableErrors = func(err error) bool {
		return err.Error() != "bad uri"
	}

	attempts := 0
	nonRetryable := errors.New("bad uri")

	err := RetryWithBackoff(context.Background(), config, func() error {
		attempts++
		return nonRetryable
	})

	assert.Equal(t, 1, attempts)
	assert.Equal(t, nonRetryable, err)
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	config := DefaultRetryConfig()
	config.MaxAttempts = 5
	config.InitialDelay = 100 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	attempts := 0
	err := RetryWithBackoff(ctx, config, func() error {
		attempts++
		return errors.New("always fails")
	})

	assert.Contains(t, err.Error(), "retry cancelled")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_OnRetryReportsBackoff(t *testing.T) {
	config := RetryConfig{
		MaxAttempts:   4,
		InitialDelay:  5 * time.Millisecond,
		MaxDelay:      12 * time.Millisecond,
		BackoffFactor: 2.0,
	}

	var attempts []int
	var delays []time.Duration
	config.OnRetry = func(attempt int, delay time.Duration, err error) {
		attempts = append(attempts, attempt)
		delays = append(delays, delay)
	}

	err := RetryWithBackoff(context.Background(), config, func() error {
		return errors.New("always fails")
	})

	assert.Error(t, err)
	assert.Equal(t, []int{1, 2, 3}, attempts)
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 10 * time.Millisecond, 12 * time.Millisecond}, delays)
}

func TestRetryWithBackoff_ZeroAttemptsRunsOnce(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), RetryConfig{}, func() error {
		attempts++
		return errors.New("fails")
	})

	assert.Equal(t, 1, attempts)
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestWithJitter(t *testing.T) {
	base := 100 * time.Millisecond

	assert.Equal(t, base, withJitter(base, 0))
	assert.Equal(t, time.Duration(0), withJitter(0, 0.5))

	for i := 0; i < 100; i++ {
		d := withJitter(base, 0.5)
		assert.GreaterOrEqual(t, d, base)
		assert.Less(t, d, base+50*time.Millisecond)
	}
}
