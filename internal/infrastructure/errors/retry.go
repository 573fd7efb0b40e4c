package errors

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"
)

// RetryLogger defines the interface for logging retry operations
type RetryLogger interface {
	Printf(format string, v ...interface{})
}

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxAttempts     int           // total attempts including the first
	InitialDelay    time.Duration // delay before the second attempt
	MaxDelay        time.Duration // upper bound on any single delay
	BackoffFactor   float64       // 1 gives a fixed delay
	Jitter          bool          // add up to 25% random delay
	RetryableErrors []ErrorCode   // codes worth another attempt
	Logger          RetryLogger   // receives retry progress when set
}

// DefaultRetryConfig is used by the journal store for busy/locked databases
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
		RetryableErrors: []ErrorCode{
			ErrCodeConnection,
			ErrCodeTimeout,
			ErrCodeTransaction,
			ErrCodeBusy,
		},
	}
}

// FixedDelayConfig retries remote failures a bounded number of times with a constant pause
func FixedDelayConfig(maxAttempts int, delay time.Duration) *RetryConfig {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryConfig{
		MaxAttempts:   maxAttempts,
		InitialDelay:  delay,
		MaxDelay:      delay,
		BackoffFactor: 1,
		RetryableErrors: []ErrorCode{
			ErrCodeConnection,
			ErrCodeTimeout,
			ErrCodeUnavailable,
		},
	}
}

// RetryableOperation represents an operation that can be retried
type RetryableOperation func() error

func (c *RetryConfig) logf(format string, v ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(format, v...)
	}
}

// WithRetryContext runs operation until it succeeds, fails with a non-retryable error,
// exhausts MaxAttempts or ctx is done. operationName only affects log messages.
func WithRetryContext(ctx context.Context, config *RetryConfig, operation RetryableOperation, operationName string) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	attempts := max(config.MaxAttempts, 1)
	name := operationName
	if name == "" {
		name = "operation"
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 0 {
				config.logf("%s succeeded after %d attempts", name, attempt+1)
			}
			return nil
		}
		lastErr = err

		if !shouldRetry(err, config) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		delay := calculateDelay(attempt, config)
		config.logf("%s failed (attempt %d/%d), retrying in %v: %v", name, attempt+1, attempts, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s cancelled during retry: %w", name, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}

// shouldRetry only retries classified errors whose code is listed in the config
func shouldRetry(err error, config *RetryConfig) bool {
	repoErr, ok := asRepositoryError(err)
	if !ok || !repoErr.IsRetryable() {
		return false
	}
	return slices.Contains(config.RetryableErrors, repoErr.Code)
}

func calculateDelay(attempt int, config *RetryConfig) time.Duration {
	multiplier := 1.0
	for range attempt {
		multiplier *= config.BackoffFactor
	}
	delay := time.Duration(float64(config.InitialDelay) * multiplier)

	if config.Jitter && delay > 0 {
		if jitter := int64(float64(delay) * 0.25); jitter > 0 {
			delay += time.Duration(rand.Int64N(jitter))
		}
	}

	return min(delay, config.MaxDelay)
}
