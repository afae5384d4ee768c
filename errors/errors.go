// Package errors provides standardized error handling patterns for Linen
// kernel subsystems. It includes error classification, standard error
// variables, and helper functions for consistent error wrapping across the
// registry, event bus, and persistence layers.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid ErrorClass = iota
	// ErrorConflict represents errors caused by the current lifecycle or
	// dependency state (duplicate registration, guarded unload, cycles)
	ErrorConflict
	// ErrorInternal represents unexpected failures such as I/O errors or
	// corrupt data
	ErrorInternal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorInvalid:
		return "invalid"
	case ErrorConflict:
		return "conflict"
	case ErrorInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Registry lifecycle errors
	ErrNotFound           = errors.New("component not found")
	ErrAlreadyExists      = errors.New("component already registered")
	ErrInvalidState       = errors.New("operation not valid for current state")
	ErrMissingDependency  = errors.New("dependency not registered")
	ErrDependencyConflict = errors.New("component is a dependency of an active component")
	ErrCycleDetected      = errors.New("cyclic dependency detected")

	// Consumer-reported precondition errors
	ErrRequirementsNotMet = errors.New("requirements not met")

	// Event bus errors
	ErrNilHandler = errors.New("handler cannot be nil")
	ErrEmptyType  = errors.New("event type cannot be empty")

	// Persistence errors
	ErrCorruptSave  = errors.New("save data corrupted or truncated")
	ErrInvalidKey   = errors.New("key contains unsupported characters")
	ErrInvalidValue = errors.New("value contains unsupported characters")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingConfig) ||
		errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrEmptyType) ||
		errors.Is(err, ErrNilHandler)
}

// IsConflict checks if an error is caused by lifecycle or dependency state
func IsConflict(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorConflict
	}

	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrDependencyConflict) ||
		errors.Is(err, ErrMissingDependency) ||
		errors.Is(err, ErrCycleDetected) ||
		errors.Is(err, ErrRequirementsNotMet)
}

// IsInternal checks if an error is an unexpected internal failure
func IsInternal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInternal
	}

	return errors.Is(err, ErrCorruptSave)
}

// IsNotFound checks if an error indicates an unknown component name.
// NotFound is deliberately outside the three classes: callers usually treat
// it as a lookup miss rather than a failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if IsInvalid(err) {
		return ErrorInvalid
	}
	if IsConflict(err) {
		return ErrorConflict
	}

	// Default to internal for unknown errors; they were not anticipated
	return ErrorInternal
}

// newClassified creates a new classified error
// This is an internal helper - use WrapInvalid(), WrapConflict(), or WrapInternal() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapInvalid wraps an error as invalid input with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}

// WrapConflict wraps an error as a state/dependency conflict with context
func WrapConflict(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorConflict, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInternal wraps an error as an internal failure with context
func WrapInternal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInternal, wrappedErr, component, method, wrappedErr.Error())
}
