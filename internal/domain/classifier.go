package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/tidwall/gjson"
)

const (
	msgAborted            = "Request was cancelled"
	msgTimeout            = "Request timed out. Please try again."
	msgNetwork            = "Network error. Please check your connection and try again."
	msgAuth               = "Authentication failed. Please check your API key."
	msgRateLimit          = "Rate limit exceeded. Please wait a moment and try again."
	msgValidation         = "Invalid request parameters."
	msgServiceUnavailable = "Service temporarily unavailable. Please try again later."
	msgServerError        = "Server error. Please try again later."
	msgUnexpected         = "An unexpected error occurred."
)

// ErrorClassifier maps raw failures into ChatError values.
type ErrorClassifier struct{}

// NewErrorClassifier creates a new classifier.
func NewErrorClassifier() *ErrorClassifier {
	return &ErrorClassifier{}
}

// ClassifyStatus maps a non-2xx HTTP response to a ChatError. The body may be
// anything; only a JSON error message is ever surfaced.
func (c *ErrorClassifier) ClassifyStatus(status int, body []byte) *ChatError {
	serverMessage := extractErrorMessage(body)
	details := map[string]any{}
	if len(body) > 0 {
		details["body"] = string(body)
	}

	chatErr := &ChatError{
		StatusCode: status,
		Details:    details,
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		// Server detail is never leaked for auth faults.
		chatErr.Kind = KindAuth
		chatErr.Message = msgAuth
		chatErr.Retryable = false
	case status == http.StatusTooManyRequests:
		chatErr.Kind = KindRateLimit
		chatErr.Message = orDefault(serverMessage, msgRateLimit)
		chatErr.Retryable = true
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		chatErr.Kind = KindValidation
		chatErr.Message = orDefault(serverMessage, msgValidation)
		chatErr.Retryable = false
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout:
		chatErr.Kind = KindAPI
		chatErr.Message = msgServiceUnavailable
		chatErr.Retryable = true
	case status >= http.StatusInternalServerError:
		chatErr.Kind = KindAPI
		chatErr.Message = msgServerError
		chatErr.Retryable = true
	default:
		chatErr.Kind = KindAPI
		chatErr.Message = orDefault(serverMessage, fmt.Sprintf("Request failed with status %d", status))
		chatErr.Retryable = false
	}

	return chatErr
}

// ClassifyFault maps a transport, cancellation or decoding fault to a ChatError.
func (c *ErrorClassifier) ClassifyFault(err error) *ChatError {
	if err == nil {
		return nil
	}

	if chatErr, ok := AsChatError(err); ok {
		return chatErr
	}

	if isTimeout(err) {
		return &ChatError{Kind: KindNetwork, Message: msgTimeout, Retryable: true, cause: err}
	}

	if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
		return &ChatError{Kind: KindAborted, Message: msgAborted, Retryable: false, cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, ErrStreamTruncated) {
		return &ChatError{
			Kind:      KindNetwork,
			Message:   msgNetwork,
			Retryable: true,
			Details:   map[string]any{"error": err.Error()},
			cause:     err,
		}
	}

	return &ChatError{
		Kind:      KindAPI,
		Message:   msgUnexpected,
		Retryable: false,
		Details:   map[string]any{"error": err.Error()},
		cause:     err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, ErrRequestTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// extractErrorMessage reads the OpenAI-style error message from a body,
// returning "" for empty or non-JSON bodies.
func extractErrorMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}

	for _, path := range []string{"error.message", "message", "error"} {
		result := gjson.GetBytes(body, path)
		if result.Type == gjson.String && result.String() != "" {
			return result.String()
		}
	}
	return ""
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
