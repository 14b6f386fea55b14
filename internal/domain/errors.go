package domain

import "errors"

// ErrorKind is the closed taxonomy of failed exchanges.
type ErrorKind string

const (
	KindAuth       ErrorKind = "auth_error"
	KindRateLimit  ErrorKind = "rate_limit"
	KindValidation ErrorKind = "validation_error"
	KindNetwork    ErrorKind = "network_error"
	KindAborted    ErrorKind = "aborted"
	KindAPI        ErrorKind = "api_error"
)

// ChatError is the sole representation of a failed exchange.
// Retryable is advisory only; nothing in this module retries.
type ChatError struct {
	Kind       ErrorKind      `json:"kind"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	StatusCode int            `json:"status_code,omitempty"`
	Details    map[string]any `json:"details,omitempty"`

	cause error
}

func (e *ChatError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *ChatError) Unwrap() error {
	return e.cause
}

// IsAborted reports whether err is a cancelled exchange.
func IsAborted(err error) bool {
	var chatErr *ChatError
	return errors.As(err, &chatErr) && chatErr.Kind == KindAborted
}

// AsChatError extracts a *ChatError from err.
func AsChatError(err error) (*ChatError, bool) {
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr, true
	}
	return nil, false
}

func newValidationError(field, message string) *ChatError {
	return &ChatError{
		Kind:      KindValidation,
		Message:   message,
		Retryable: false,
		Details:   map[string]any{"field": field},
	}
}

var (
	// ErrCancelled is the cause recorded when a token is cancelled explicitly.
	ErrCancelled = errors.New("request cancelled")

	// ErrRequestTimeout is the cause recorded when a timeout token fires.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrMetricsFinalized is returned when metrics are finalized twice.
	ErrMetricsFinalized = errors.New("metrics already finalized")

	// ErrInvalidTransition is returned for a state change the session does not allow.
	ErrInvalidTransition = errors.New("invalid streaming session transition")

	// ErrStreamTruncated is returned when the body ends before the terminal frame.
	ErrStreamTruncated = errors.New("stream ended before [DONE]")
)
