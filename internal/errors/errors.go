package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the riemann
// command. These codes are used to signal the outcome of the program
// execution to the OS.
const (
	ExitSuccess              = 0   // Indicates successful execution.
	ExitErrorGeneric         = 1   // Indicates a generic error.
	ExitErrorInvalidArgument = 2   // Indicates an invalid interval, step or job count.
	ExitErrorConfig          = 4   // Indicates a configuration error.
	ExitErrorCanceled        = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ErrInvalidArgument is the sentinel every precondition failure unwraps to.
// Callers test for it with errors.Is regardless of which field was rejected
// or on which side of a process boundary the check ran.
var ErrInvalidArgument = errors.New("invalid argument")

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ValidationError represents an input validation failure. It identifies which
// argument failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the argument that failed validation
	// ("interval", "n_iter", "n_jobs", "integrand").
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalidArgument so that errors.Is(err, ErrInvalidArgument)
// holds for every ValidationError.
func (e ValidationError) Unwrap() error { return ErrInvalidArgument }

// NewValidationError creates a ValidationError for field with a formatted message.
func NewValidationError(field, format string, a ...any) error {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, a...)}
}

// WorkerError reports the failure of one dispatched partition. The partial
// results of the other partitions are discarded when it is returned.
type WorkerError struct {
	// Partition is the index of the sub-interval whose integration failed.
	Partition int
	// Backend names the worker pool kind ("threads" or "processes").
	Backend string
	// Cause is the underlying error raised inside the worker.
	Cause error
}

// Error returns a message naming the partition, backend and cause.
func (e WorkerError) Error() string {
	return fmt.Sprintf("%s worker for partition %d failed: %v", e.Backend, e.Partition, e.Cause)
}

// Unwrap returns the original worker error.
func (e WorkerError) Unwrap() error { return e.Cause }

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// It returns nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCode maps an error returned by a riemann operation to a process exit code.
func ExitCode(err error) int {
	var cfgErr ConfigError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &cfgErr):
		return ExitErrorConfig
	case errors.Is(err, ErrInvalidArgument):
		return ExitErrorInvalidArgument
	case IsContextError(err):
		return ExitErrorCanceled
	default:
		return ExitErrorGeneric
	}
}
