package adsb

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RateLimitError represents an HTTP 429 rate limit error with retry information.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
	Message    string
	Headers    RateLimitHeaders
}

// RateLimitHeaders contains rate limit information from response headers.
type RateLimitHeaders struct {
	Limit     int       // X-Rate-Limit-Limit: Maximum requests allowed
	Remaining int       // X-Rate-Limit-Remaining: Requests remaining in current window
	Reset     time.Time // X-Rate-Limit-Reset: When the rate limit resets
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return e.Message
}

// IsRateLimitError checks if an error is (or wraps) a rate limit error.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// checkResponse maps non-200 responses onto the package's error types.
func checkResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusTooManyRequests:
		return &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
			Message:    "Rate limit exceeded",
			Headers:    extractRateLimitHeaders(resp.Header),
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("API returned status %d: %w", resp.StatusCode, ErrUnauthorized)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
}

// parseRetryAfter extracts the Retry-After header value.
// Returns the duration to wait, or 0 if header is not present.
// Supports both delay-seconds (integer) and HTTP-date formats.
//
// Examples:
//
//	Retry-After: 30                            -> 30 seconds
//	Retry-After: Wed, 21 Oct 2015 07:28:00 GMT -> duration until that time
func parseRetryAfter(headers http.Header) time.Duration {
	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		// OpenSky reports the wait in its own header
		retryAfter = headers.Get("X-Rate-Limit-Retry-After-Seconds")
	}
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if retryTime, err := http.ParseTime(retryAfter); err == nil {
		duration := time.Until(retryTime)
		if duration > 0 {
			return duration
		}
	}

	return 0
}

// extractRateLimitHeaders extracts common rate limit headers from the response.
func extractRateLimitHeaders(headers http.Header) RateLimitHeaders {
	rlh := RateLimitHeaders{
		Limit:     -1,
		Remaining: -1,
	}

	if val, ok := headerInt(headers, "X-Rate-Limit-Limit", "X-RateLimit-Limit"); ok {
		rlh.Limit = val
	}
	if val, ok := headerInt(headers, "X-Rate-Limit-Remaining", "X-RateLimit-Remaining"); ok {
		rlh.Remaining = val
	}
	if val, ok := headerInt(headers, "X-Rate-Limit-Reset", "X-RateLimit-Reset"); ok {
		rlh.Reset = time.Unix(int64(val), 0)
	}

	return rlh
}

// headerInt returns the first of names that is present and parses as an integer.
func headerInt(headers http.Header, names ...string) (int, bool) {
	for _, name := range names {
		if raw := headers.Get(name); raw != "" {
			if val, err := strconv.Atoi(raw); err == nil {
				return val, true
			}
		}
	}
	return 0, false
}
