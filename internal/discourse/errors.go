package discourse

import (
	"fmt"
	"time"
)

// StatusError is a non-2xx upstream response. Body holds the best-effort
// parsed response body: decoded JSON when the body parses, raw text otherwise.
// The retry policy inspects Status; 429 and 5xx are retried, everything else
// is surfaced immediately.
type StatusError struct {
	Status  int
	Message string
	Body    any
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("discourse: upstream returned %d: %s", e.Status, e.Message)
}

// Retryable reports whether the retry policy may re-issue the request.
func (e *StatusError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}

// TimeoutError is returned when the per-call timeout or the caller's
// cancellation fires before a response arrives.
type TimeoutError struct {
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("discourse: request timed out after %s", e.Duration)
}

// NetworkError is a DNS, connection, or TLS level failure. Network errors are
// not retried; only status-based triggers enter the backoff loop.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("discourse: network failure: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// TransportError covers anything that is neither a status, timeout, nor
// network failure (malformed responses, unreadable bodies).
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("discourse: transport failure: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// ConflictError is an optimistic-locking mismatch, e.g. a stale sequence
// number on a draft update. Never retried; the caller must re-fetch.
type ConflictError struct {
	Expected int
	Actual   int
	Message  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("discourse: conflict: %s (expected sequence %d, actual %d)", e.Message, e.Expected, e.Actual)
}
