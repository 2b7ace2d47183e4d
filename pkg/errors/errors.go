// Package errors provides the unified error type and factory functions for
// the appeals casework service. Every layer (domain, application,
// infrastructure, interfaces) uses AppError as the single carrier for
// structured error information, enabling consistent HTTP responses, logging,
// and monitoring.
package errors

import (
	"errors"
	"fmt"
)

// AppError is the single structured error type used throughout the service.
// It satisfies the standard error interface and supports Go 1.13+ error
// wrapping so that errors.Is / errors.As / errors.Unwrap work transparently
// across all layers.
//
// Usage:
//
//	return errors.New(errors.ErrCodeAppealNotFound, "appeal APP/Q9999/W/22/1234567 not found")
//	return errors.Wrap(repoErr, errors.ErrCodeDatabaseError, "failed to load appeal")
//	return errors.InvalidTransition("complete is terminal").WithDetail("appeal_id=" + id)
type AppError struct {
	// Code is the typed error code that uniquely identifies the failure
	// category.
	Code ErrorCode

	// Message is the primary human-readable description of the error,
	// suitable for inclusion in API responses returned to callers.
	Message string

	// Detail carries supplementary context (entity IDs, query parameters)
	// that aids debugging without leaking internals to end users.
	Detail string

	// Cause is the underlying error that triggered this AppError, enabling
	// errors.Is / errors.As traversal of the full error chain.
	Cause error
}

// Error implements the standard error interface.
// Format: "[<code>] <message>: <detail>", the detail segment omitted when empty.
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error, enabling errors.Is and
// errors.As to traverse the full error chain.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a shallow copy of the receiver with Detail set.
// Safe to call on a nil pointer (returns nil).
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy of the receiver with Cause set to err.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// New constructs a fresh AppError with the given code and message.
// Preferred for errors that originate in the current layer without an
// underlying cause from a lower layer.
func New(code ErrorCode, message string) *AppError {
	if message == "" {
		message = ErrorCodeMessage[code]
	}
	return &AppError{Code: code, Message: message}
}

// Wrap constructs an AppError that wraps an existing error. If err is nil,
// Wrap returns nil so it can be used inline. When err is already an
// *AppError and code is ErrCodeUnknown, the original code is preserved so
// the domain classification survives cross-layer propagation.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == ErrCodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// IsCode reports whether any error in err's chain is an *AppError with the
// given code. It is the idiomatic way to check domain failure modes:
//
//	if errors.IsCode(err, errors.ErrCodeInvalidTransition) { ... }
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether any error in err's chain carries a not-found code.
func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeNotFound) || IsCode(err, ErrCodeAppealNotFound)
}

// GetCode extracts the ErrorCode from the first *AppError found in err's
// chain. If no *AppError is present, ErrCodeUnknown is returned. Useful in
// middleware and logging layers that need a single code to emit as a metric
// label without coupling to specific domain errors.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeUnknown
}

// Convenience factories for the most common conditions. Call sites read
// naturally:
//
//	return errors.InvalidParam("procedure type must be written, hearing or inquiry")
//	return errors.InvalidTransition("withdrawn appeals accept no further transitions")

// NotFound constructs an ErrCodeNotFound AppError.
func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

// InvalidParam constructs an ErrCodeValidation AppError.
func InvalidParam(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// InvalidState constructs an ErrCodeConflict AppError, used for generic
// domain state violations that are not status-machine rejections.
func InvalidState(message string) *AppError {
	return New(ErrCodeConflict, message)
}

// Internal constructs an ErrCodeInternal AppError. Always log the underlying
// cause before or after calling Internal.
func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

// InvalidTransition constructs an ErrCodeInvalidTransition AppError.
func InvalidTransition(message string) *AppError {
	return New(ErrCodeInvalidTransition, message)
}

// InvalidAppealState constructs an ErrCodeInvalidAppealState AppError.
func InvalidAppealState(message string) *AppError {
	return New(ErrCodeInvalidAppealState, message)
}

// CalendarUnavailable constructs an ErrCodeCalendarUnavailable AppError.
func CalendarUnavailable(message string) *AppError {
	return New(ErrCodeCalendarUnavailable, message)
}

// ConcurrentModification constructs an ErrCodeConcurrentModification AppError.
func ConcurrentModification(message string) *AppError {
	return New(ErrCodeConcurrentModification, message)
}

// IncompleteRecipientData constructs an ErrCodeIncompleteRecipientData AppError.
func IncompleteRecipientData(message string) *AppError {
	return New(ErrCodeIncompleteRecipientData, message)
}
