package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for the failure kinds this library distinguishes.
// Callers match them with Is/As rather than by string.
var (
	ErrValidation    = sentinel(ErrCodeValidation, "validation error")
	ErrConfiguration = sentinel(ErrCodeConfiguration, "configuration error")
	ErrProvider      = sentinel(ErrCodeProvider, "provider error")
)

const (
	ErrCodeValidation    = "validation_error"
	ErrCodeConfiguration = "configuration_error"
	ErrCodeProvider      = "provider_error"
)

// InternalError is the concrete type behind the sentinels above.
type InternalError struct {
	Code    string // machine-readable error code
	Message string // human-readable error message
	Err     error  // underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is matches two InternalErrors by code so that marked errors compare
// equal to their sentinel.
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func sentinel(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsValidation reports whether the error was marked as a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConfiguration reports whether the error was marked as a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsProvider reports whether the error was marked as a provider error.
func IsProvider(err error) bool {
	return errors.Is(err, ErrProvider)
}

// Hint returns the user-facing hints attached to the error, if any.
func Hint(err error) string {
	return errors.FlattenHints(err)
}
