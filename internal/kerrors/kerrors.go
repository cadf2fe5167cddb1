// Package kerrors defines stable error codes for kontext failure modes.
package kerrors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// RateLimited indicates the completion API rejected a request for rate limiting
	RateLimited ErrorCode = "RATE_LIMITED"
	// APIError indicates a permanent completion API failure
	APIError ErrorCode = "API_ERROR"
	// ParseError indicates malformed model output or malformed stored JSON
	ParseError ErrorCode = "PARSE_ERROR"
	// NotFound indicates a requested record does not exist
	NotFound ErrorCode = "NOT_FOUND"
	// NoCoverage indicates no stored decisions cover a topic; distinct from an error
	NoCoverage ErrorCode = "NO_COVERAGE"
	// StorageError indicates an underlying database failure
	StorageError ErrorCode = "STORAGE_ERROR"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrRateLimited is the sentinel for transient rate-limit signals from the
// completion capability. Callers decide retry behavior with errors.Is.
var ErrRateLimited = errors.New("rate limited")

// KontextError represents an error with a stable code and optional cause
type KontextError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error
}

// New creates a new KontextError
func New(code ErrorCode, message string, cause error) *KontextError {
	return &KontextError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *KontextError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *KontextError) Unwrap() error {
	return e.cause
}

// CodeOf extracts the ErrorCode from an error chain, or InternalError
func CodeOf(err error) ErrorCode {
	var ke *KontextError
	if errors.As(err, &ke) {
		return ke.Code
	}
	if errors.Is(err, ErrRateLimited) {
		return RateLimited
	}
	return InternalError
}
