package recursedelete

import (
	"errors"
	"fmt"
)

// Standard sentinel errors.
var (
	// ErrUnknownType is returned when the root type of a delete is not registered.
	ErrUnknownType = errors.New("recursedelete: unknown entity type")

	// ErrMaxDepth is returned when a cascade exceeds the configured depth limit.
	ErrMaxDepth = errors.New("recursedelete: maximum cascade depth exceeded")

	// ErrNilEntity is returned when RecurseDelete is called with a nil entity.
	ErrNilEntity = errors.New("recursedelete: nil entity")

	// ErrInvalidConfig is matched by every ConfigError.
	ErrInvalidConfig = errors.New("recursedelete: invalid configuration")
)

// UnknownTypeError represents a root type missing from the registry.
type UnknownTypeError struct {
	Name string
}

// Error returns the error string.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("recursedelete: unknown entity type %q", e.Name)
}

// Is reports whether the target error matches ErrUnknownType.
func (e *UnknownTypeError) Is(err error) bool {
	return err == ErrUnknownType
}

// StepError wraps a data-store failure with the cascade step it occurred in.
// Any StepError aborts the enclosing transaction.
type StepError struct {
	Type string // Entity type being processed
	Op   string // Operation: "select", "delete", "begin" or "commit"
	Err  error  // Underlying error
}

// Error returns the error string.
func (e *StepError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("recursedelete: %s %s: %v", e.Op, e.Type, e.Err)
	}
	return fmt.Sprintf("recursedelete: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// IsStepError returns true if the error is a StepError.
func IsStepError(err error) bool {
	if err == nil {
		return false
	}
	var e *StepError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("recursedelete: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// ConfigError represents an invalid resolver option.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("recursedelete: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("recursedelete: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}
