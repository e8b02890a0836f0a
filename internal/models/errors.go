package models

import "fmt"

// InputError represents malformed input series supplied to a detection pass.
// An InputError aborts the entire pass; no partial results are published.
type InputError struct {
	message string
}

// NewInputError creates a new input error
func NewInputError(format string, args ...interface{}) *InputError {
	return &InputError{
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *InputError) Error() string {
	return e.message
}

// IsInputError checks if an error is an input error
func IsInputError(err error) bool {
	_, ok := err.(*InputError)
	return ok
}
