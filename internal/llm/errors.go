package llm

import (
	"fmt"
	"strconv"
	"time"
)

// APIError indicates a model provider answered with a non-200 status.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s API error (status %d, retry after %s): %s", e.Provider, e.StatusCode, e.RetryAfter, e.Body)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// RateLimited reports whether the provider returned HTTP 429.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == 429
}

// NewAPIError builds an APIError from a raw response. The body is truncated
// so provider error pages do not flood the logs.
func NewAPIError(provider string, statusCode int, body []byte, retryAfter string) *APIError {
	e := &APIError{
		Provider:   provider,
		StatusCode: statusCode,
		Body:       Truncate(string(body), 500),
	}
	if secs := ParseRetryAfterHeader(retryAfter); secs > 0 {
		e.RetryAfter = time.Duration(secs) * time.Second
	}
	return e
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// Truncate shortens s to maxLen bytes, marking the cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
