package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork    = errors.New("network error")
	ErrHTTPStatus = errors.New("unexpected http status")
	ErrParse      = errors.New("malformed payload")
	ErrNotFound   = errors.New("tracking endpoint not found")

	ErrInvalidInterval  = errors.New("poll interval must be positive")
	ErrNotAuthenticated = errors.New("order api: not authenticated")
	ErrSessionExists    = errors.New("tracking session already running")
	ErrSessionNotFound  = errors.New("tracking session not found")
	ErrSnapshotMissing  = errors.New("no snapshot recorded")
)

// NetworkError wraps transport failures: timeouts, refused connections, DNS.
type NetworkError struct {
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrNetwork, e.URL, e.Cause)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Cause} }

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string // truncated excerpt
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %d: %s", ErrHTTPStatus, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("%s %d: %s: %s", ErrHTTPStatus, e.StatusCode, e.URL, e.Body)
}

func (e *HTTPError) Unwrap() error { return ErrHTTPStatus }

// ParseError is returned when a response body does not match the expected schema.
type ParseError struct {
	URL   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrParse, e.URL, e.Cause)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Cause} }

// NotFoundError is returned when no tracking endpoint can be resolved for an order.
type NotFoundError struct {
	OrderNumber string
	Reason      string
}

func (e *NotFoundError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s for order %s", ErrNotFound, e.OrderNumber)
	}
	return fmt.Sprintf("%s for order %s: %s", ErrNotFound, e.OrderNumber, e.Reason)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IsPollError reports whether err is one of the recoverable poll-cycle failures.
func IsPollError(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrHTTPStatus) || errors.Is(err, ErrParse)
}

// ErrorKind returns a short label for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrHTTPStatus):
		return "http_status"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "other"
	}
}
