package cascade

import (
	"context"
	"errors"
	"fmt"
)

// Code is a stable, machine-readable cascade error code.
type Code string

const (
	// Input errors.
	CodeValidation Code = "VALIDATION_ERROR"
	CodeNotFound   Code = "NOT_FOUND"

	// Access errors.
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"

	// Consistency errors.
	CodeConflict          Code = "CONFLICT"
	CodeTransactionFailed Code = "TRANSACTION_FAILED"

	// Operational errors. These carry a retryable hint in extensions.
	CodeTimeout            Code = "TIMEOUT"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"

	// Fallback.
	CodeInternal Code = "INTERNAL_ERROR"
)

// Error is the structured error shape of a cascade response. It implements
// the error interface so core components can both return and serialize it.
type Error struct {
	Message    string         `json:"message"`
	Code       Code           `json:"code"`
	Field      string         `json:"field,omitempty"`
	Path       []string       `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates an error with the given code.
func NewError(code Code, message string) *Error {
	return &Error{Message: message, Code: code}
}

// ValidationError creates a VALIDATION_ERROR for a field.
func ValidationError(message, field string) *Error {
	return &Error{Message: message, Code: CodeValidation, Field: field}
}

// NotFoundError creates a NOT_FOUND error.
func NotFoundError(message string) *Error {
	return &Error{Message: message, Code: CodeNotFound}
}

// TransactionError creates a TRANSACTION_FAILED error.
func TransactionError(message string) *Error {
	return &Error{Message: message, Code: CodeTransactionFailed}
}

// InternalError creates an INTERNAL_ERROR.
func InternalError(message string) *Error {
	return &Error{Message: message, Code: CodeInternal}
}

// TimeoutError creates a TIMEOUT error with retryable extensions.
func TimeoutError(message string, timeoutMs int64) *Error {
	return &Error{
		Message: message,
		Code:    CodeTimeout,
		Extensions: map[string]any{
			"retryable": true,
			"timeoutMs": timeoutMs,
		},
	}
}

// RateLimitedError creates a RATE_LIMITED error with retry metadata.
func RateLimitedError(message string, retryAfter, limit int, window string) *Error {
	return &Error{
		Message: message,
		Code:    CodeRateLimited,
		Extensions: map[string]any{
			"retryable":  true,
			"retryAfter": retryAfter,
			"limit":      limit,
			"window":     window,
			"remaining":  0,
		},
	}
}

// ServiceUnavailableError creates a SERVICE_UNAVAILABLE error for a named
// upstream service.
func ServiceUnavailableError(message, service string, retryAfter int) *Error {
	ext := map[string]any{
		"retryable": true,
		"service":   service,
	}
	if retryAfter > 0 {
		ext["retryAfter"] = retryAfter
	}
	return &Error{Message: message, Code: CodeServiceUnavailable, Extensions: ext}
}

// FromError maps an arbitrary resolver error to a cascade error. Cascade
// errors pass through unchanged; context cancellation and deadline errors map
// to TIMEOUT; everything else falls back to INTERNAL_ERROR.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return TimeoutError(err.Error(), 0)
	}

	return InternalError(err.Error())
}
