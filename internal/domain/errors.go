// Package domain defines core types, interfaces, and errors for the clone platform.
package domain

import "fmt"

// ConfigError indicates invalid or incomplete configuration. Unlike execution
// failures, which are recorded in outcome structures, a ConfigError propagates
// to the caller: there is no meaningful partial result to return.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// InvalidPathError indicates an object path whose segment count does not match
// the level it is used at (database=1, schema=2, table=3).
type InvalidPathError struct {
	Message string
}

func (e *InvalidPathError) Error() string { return e.Message }

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrConfig creates a ConfigError with a formatted message.
func ErrConfig(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// ErrInvalidPath creates an InvalidPathError with a formatted message.
func ErrInvalidPath(format string, args ...interface{}) *InvalidPathError {
	return &InvalidPathError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
