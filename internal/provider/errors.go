package provider

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a call before
// any network attempt is made.
var ErrCircuitOpen = errors.New("provider circuit breaker is open")

// ErrAccountNotConfigured indicates the user has no provider credential, so
// no signed request can be built. No retry, no breaker interaction.
type ErrAccountNotConfigured struct {
	UserID int64
}

func (e ErrAccountNotConfigured) Error() string {
	return "provider account not configured for user: " + strconv.FormatInt(e.UserID, 10)
}

// Is implements the errors.Is interface for ErrAccountNotConfigured
func (e ErrAccountNotConfigured) Is(target error) bool {
	t, ok := target.(ErrAccountNotConfigured)
	if !ok {
		return false
	}
	if t.UserID == 0 {
		return true
	}
	return e.UserID == t.UserID
}

// UpstreamError carries the status and body of the last failed attempt once
// the retry budget is exhausted or a non-retryable status is seen.
// StatusCode is 0 when no response was received at all.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       []byte
	Err        error // Underlying transport error, if any
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider call %s failed with status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("provider call %s failed: %v", e.Endpoint, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient: a network error, a
// 5xx, or a 429. Other 4xx statuses are final.
func (e *UpstreamError) Retryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	if e.StatusCode == 429 {
		return true
	}
	return e.StatusCode >= 500
}
