package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a referenced resource does not exist. Organization
// lookups treat this as log-and-skip rather than a request failure.
var ErrNotFound = errors.New("not found")

// ConfigError is a fatal construction-time configuration problem, such as a
// missing completion-service credential. It is never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NewConfigError creates a ConfigError for the given field.
func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

// ValidationError is a per-request precondition failure surfaced to the
// caller, such as a submission without a draft.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
