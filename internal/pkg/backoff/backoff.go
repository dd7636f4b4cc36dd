// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package backoff provides exponential backoff with jitter for retrying operations.
package backoff

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	// DefaultInitialDelay is the delay before the first retry of a default Policy.
	DefaultInitialDelay = 500 * time.Millisecond
	// DefaultMaxDelay is the maximum delay between attempts of a default Policy.
	DefaultMaxDelay = 8 * time.Second
)

// Policy controls how often and how long Retry waits.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first. Values below 1 mean 1.
	MaxAttempts int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the delay between attempts.
	MaxDelay time.Duration
}

// NewPolicy returns a Policy with the default delays that retries the given number of times.
func NewPolicy(retries int) Policy {
	return Policy{
		MaxAttempts:  retries + 1,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
	}
}

// RetryOption is an option for Retry.
type RetryOption func(*retryOptions)

// RetryWithSleep sets the function used to wait between attempts.
//
// The function must return ctx.Err() if the context is done before the duration elapses.
func RetryWithSleep(sleep func(ctx context.Context, duration time.Duration) error) RetryOption {
	return func(retryOptions *retryOptions) {
		retryOptions.sleep = sleep
	}
}

// Retry calls f repeatedly until it succeeds, returns a non-retryable error,
// or the maximum number of attempts is reached. Between attempts, it waits with
// exponential backoff and jitter.
//
// f returns the result, whether the error is retryable, and any error.
// If retryable is true and err is non-nil, Retry will wait and try again.
// If retryable is false, Retry returns immediately with the result and error.
// The result of the last attempt is returned even on error.
func Retry[T any](
	ctx context.Context,
	policy Policy,
	f func(ctx context.Context, attempt int) (T, bool, error),
	options ...RetryOption,
) (T, error) {
	retryOptions := newRetryOptions()
	for _, option := range options {
		option(retryOptions)
	}
	maxAttempts := max(policy.MaxAttempts, 1)
	delay := policy.InitialDelay
	for attempt := range maxAttempts {
		result, retryable, err := f(ctx, attempt)
		if err == nil {
			return result, nil
		}
		if !retryable {
			return result, err
		}
		// Don't wait after the last attempt.
		if attempt == maxAttempts-1 {
			if maxAttempts == 1 {
				return result, err
			}
			return result, fmt.Errorf("failed after %d attempts: %w", maxAttempts, err)
		}
		if err := retryOptions.sleep(ctx, jitter(delay)); err != nil {
			return result, err
		}
		// Exponential backoff, capped at MaxDelay.
		delay *= 2
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	// Unreachable since maxAttempts is at least 1.
	var zero T
	return zero, fmt.Errorf("failed after %d attempts", maxAttempts)
}

// *** PRIVATE ***

type retryOptions struct {
	sleep func(context.Context, time.Duration) error
}

func newRetryOptions() *retryOptions {
	return &retryOptions{
		sleep: sleep,
	}
}

// jitter returns a random duration between delay/2 and delay.
func jitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	return delay/2 + time.Duration(rand.Int64N(int64(delay/2+1)))
}

func sleep(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
