// Package errors provides structured error handling for govtable with rich
// context, stack traces, and error categorization aligned with the adapter's
// failure taxonomy: capability errors are surfaced at plan time, transport
// errors are retried then surfaced, remote API errors surface immediately,
// coercion errors stay contained to a field or row, and pagination errors
// terminate the scan.
//
// # Basic Usage
//
//	// Create a new error
//	err := errors.New(errors.ErrorTypeCapability, "operator not expressible")
//
//	// Add context
//	err = err.WithDetail("column", "doc_class").
//	         WithDetail("operator", "LIKE")
//
//	// Wrap existing errors
//	if err := client.GetJSON(ctx, url, params, &page); err != nil {
//	    return errors.Wrap(err, errors.ErrorTypePagination, "page fetch failed").
//	        WithDetail("offset", offset)
//	}
//
// # Retryability
//
// Only transport errors (network failures, timeouts, 429 and 5xx responses)
// are retryable. Everything else terminates immediately: either the whole scan
// (remote API, pagination) or just the affected field or row (coercion).
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error, used for error handling
// strategies, retry decisions, and reporting back to the host engine.
type ErrorType string

const (
	// ErrorTypeCapability represents a predicate or sort the adapter cannot
	// express, neither remotely nor as a residual filter. Surfaced at plan
	// time, before any HTTP call is made.
	ErrorTypeCapability ErrorType = "capability"
	// ErrorTypeTransport represents network, timeout, 429 and 5xx failures.
	// Retried with backoff, then surfaced as a terminal scan failure.
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeRemoteAPI represents a non-retryable remote response
	// (4xx other than 429, undecodable body). Surfaced immediately.
	ErrorTypeRemoteAPI ErrorType = "remote_api"
	// ErrorTypeCoercion represents a per-field type coercion failure.
	// Contained to nulling the field, or skipping the row when the column
	// is required. Never terminates the scan.
	ErrorTypeCoercion ErrorType = "coercion"
	// ErrorTypePagination represents an unexpected cursor or response shape.
	// Terminal for the scan.
	ErrorTypePagination ErrorType = "pagination"
	// ErrorTypeConfig represents construction-time configuration errors.
	ErrorTypeConfig ErrorType = "config"
)

// Error represents a structured error with context.
//
// Fields:
//   - Type: Categorizes the error for handling strategies
//   - Message: Human-readable error description
//   - Cause: The underlying error that caused this error
//   - Details: Key-value pairs providing additional context
//   - Stack: Call stack at the point of error creation
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack, capturing
// the function name, file path, and line number for debugging.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface, returning a formatted error message
// that includes the error type, message, and cause (if present).
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error, enabling compatibility with errors.Is
// and errors.As for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. This method can be chained
// for adding multiple details.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message, automatically
// capturing the call stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context, preserving the
// original error as the cause. If the error is already a structured Error,
// its stack trace is preserved. Returns nil if the input error is nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsRetryable returns true if the error is retryable based on its type.
// Only transport errors are retryable; the retry policy in pkg/clients
// uses this to decide whether another attempt is worthwhile.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == ErrorTypeTransport
}

// AsError extracts the structured Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsType checks if the error is of the given type, useful for error handling
// strategies and conditional logic based on error categories.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// captureStack captures the current call stack up to maxFrames deep,
// skipping the specified number of frames from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
