// Package utils provides logging and error handling primitives shared by
// the scraping backends, parser, and orchestrator.
package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode categorizes failures so the orchestrator can decide between
// retrying, falling back, and surfacing the error to the caller.
type ErrorCode string

const (
	// ErrCodeConfiguration marks a missing credential or flag. The backend
	// reports unavailable and is skipped in auto mode; an explicit strategy
	// override surfaces it as a request failure.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// ErrCodeTransport marks network failures and non-2xx upstream
	// statuses. Retryable per the retry classifier.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"

	// ErrCodeEmptyResponse marks a fetch that succeeded but returned a
	// payload too small to be meaningful. Triggers fallback.
	ErrCodeEmptyResponse ErrorCode = "EMPTY_RESPONSE"

	// ErrCodeParse marks a malformed element during extraction. Absorbed
	// per element, never fatal to a whole parse.
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeExhausted marks total backend exhaustion, the only failure
	// surfaced to the caller.
	ErrCodeExhausted ErrorCode = "EXHAUSTED"

	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	ErrCodeBrowser     ErrorCode = "BROWSER_FAILED"
	ErrCodeInternal    ErrorCode = "INTERNAL_ERROR"
)

// StructuredError carries an error code, optional cause, and a retryable
// hint alongside the message.
type StructuredError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Cause     error                  `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
	Retryable bool                   `json:"retryable"`
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Is matches structured errors by code.
func (e *StructuredError) Is(target error) bool {
	if se, ok := target.(*StructuredError); ok {
		return e.Code == se.Code
	}
	return false
}

// WithContext adds contextual information to the error.
func (e *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a structured error with the given code and message.
func NewError(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Retryable: code == ErrCodeTransport || code == ErrCodeRateLimited,
	}
}

// WrapError wraps an existing error in a structured error.
func WrapError(err error, code ErrorCode, message string) *StructuredError {
	se := NewError(code, message)
	se.Cause = err
	return se
}

// CodeOf extracts the error code from err, or ErrCodeInternal when err is
// not structured.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// retryablePatterns are substrings whose presence in an error message marks
// the error as transient. Covers transport-level failure codes, upstream
// throttling phrases, and the HTTP statuses gateways emit under load.
var retryablePatterns = []string{
	"econnreset",
	"connection reset",
	"etimedout",
	"timeout",
	"econnrefused",
	"connection refused",
	"enotfound",
	"no such host",
	"rate limit",
	"429",
	"500",
	"502",
	"503",
	"504",
}

// IsRetryableError reports whether err should be retried. Structured errors
// answer from their Retryable flag; everything else is classified by
// message substring.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var se *StructuredError
	if errors.As(err, &se) {
		return se.Retryable
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
