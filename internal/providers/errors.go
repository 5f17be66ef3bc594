package providers

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrorKind classifies provider errors for the retry loop.
type ErrorKind string

const (
	// KindTransient marks failures worth retrying (rate limits, 5xx,
	// network errors, timeouts).
	KindTransient ErrorKind = "transient"

	// KindFatal marks failures retrying cannot fix (missing or invalid
	// credentials, malformed provider configuration).
	KindFatal ErrorKind = "fatal"
)

// ProviderError is a classified error from an LLM or TTS provider.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err is a provider error that must not be retried.
func IsFatal(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind == KindFatal
	}
	return false
}

// RateLimitError is returned when a provider responds with 429.
// It is always treated as transient.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// IsRateLimitError extracts a RateLimitError from an error chain.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// classifyStatus maps an HTTP status code to an error kind.
// 401/403 mean the credential is wrong, which no retry can fix.
func classifyStatus(statusCode int) ErrorKind {
	switch statusCode {
	case 401, 403:
		return KindFatal
	default:
		return KindTransient
	}
}

// parseRetryAfter parses a Retry-After header value in seconds.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
