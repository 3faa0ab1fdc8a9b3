package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents an application-level error with a code, an optional
// user-facing remediation hint, and an optional cause
type AppError struct {
	Code        string
	Message     string
	Remediation string
	Cause       error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewRemediable creates an AppError that carries a remediation hint for
// user-facing surfaces
func NewRemediable(code, message, remediation string, cause error) *AppError {
	return &AppError{
		Code:        code,
		Message:     message,
		Remediation: remediation,
		Cause:       cause,
	}
}

// CodeOf returns the code of err when it is (or wraps) an AppError,
// or the empty string otherwise
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err is (or wraps) an AppError with the given code
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// RemediationOf returns the remediation hint attached to err, if any
func RemediationOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Remediation
	}
	return ""
}

// Error codes
const (
	ErrCodeValidation   = "VALIDATION_FAILED"
	ErrCodeCacheCreate  = "CACHE_CREATE_FAILED"
	ErrCodeCacheExpired = "CACHE_EXPIRED"
	ErrCodeGeneration   = "GENERATION_FAILED"
	ErrCodeInvalidState = "INVALID_STATE"
)

// RemediationRestart is the standard hint for an expired remote context:
// the cached documents are gone and only a fresh analysis can recreate them.
const RemediationRestart = "session context expired, please restart the analysis"
