package adsb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// RetryConfig configures retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int

	// InitialDelay is the initial backoff delay (default: 1 second)
	InitialDelay time.Duration

	// MaxDelay is the maximum backoff delay (default: 60 seconds)
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier (default: 2.0 for exponential)
	Multiplier float64

	// RespectRetryAfter uses Retry-After header if available (default: true)
	RespectRetryAfter bool
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		MaxDelay:          60 * time.Second,
		Multiplier:        2.0,
		RespectRetryAfter: true,
	}
}

// RetryableFunc is a function that can be retried.
// It should return an error if the operation failed.
type RetryableFunc func() error

// RetryWithBackoff executes a function with exponential backoff retry logic.
// It handles rate limit errors (HTTP 429) specially by respecting Retry-After headers.
// Unauthorized errors are returned immediately since retrying cannot fix them.
//
// Example usage:
//
//	err := RetryWithBackoff(ctx, DefaultRetryConfig(), func() error {
//	    _, err := source.GetAircraft(ctx, lat, lon, radiusKm)
//	    return err
//	})
func RetryWithBackoff(ctx context.Context, cfg RetryConfig, fn RetryableFunc) error {
	_, err := RetryWithBackoffResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryWithBackoffResult executes a function with exponential backoff and returns a result.
// This is useful when the function returns data along with an error.
//
// Example usage:
//
//	aircraft, err := RetryWithBackoffResult(ctx, DefaultRetryConfig(), func() ([]Aircraft, error) {
//	    return source.GetAircraft(ctx, lat, lon, radiusKm)
//	})
func RetryWithBackoffResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		// First attempt (no delay)
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-timer.C:
			}
		}

		res, err := fn()
		if err == nil {
			return res, nil
		}

		result = res
		lastErr = err

		if isPermanent(err) {
			return result, err
		}

		// Last attempt - don't calculate next delay
		if attempt == cfg.MaxRetries {
			break
		}

		// delay = min(InitialDelay * Multiplier^attempt, MaxDelay)
		delay = backoffDelay(cfg, attempt)

		if rle, ok := IsRateLimitError(err); ok {
			if cfg.RespectRetryAfter && rle.RetryAfter > 0 {
				delay = rle.RetryAfter
			}
			slog.Warn("rate limit hit",
				"remaining", rle.Headers.Remaining,
				"limit", rle.Headers.Limit,
				"reset", rle.Headers.Reset,
				"retry_in", delay)
		} else {
			slog.Debug("retrying after error", "attempt", attempt+1, "retry_in", delay, "error", err)
		}
	}

	return result, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	next := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt)))
	if cfg.MaxDelay > 0 && next > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return next
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, context.Canceled)
}
