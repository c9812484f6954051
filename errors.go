package relmap

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors matched by the typed errors below through errors.Is.
var (
	// ErrConfiguration is returned when entity or relation metadata is inconsistent.
	ErrConfiguration = errors.New("relmap: invalid configuration")

	// ErrValidation is returned when a statement cannot be compiled from its inputs.
	ErrValidation = errors.New("relmap: validation failed")

	// ErrUnsupportedFeature is returned when the target dialect lacks a requested feature.
	ErrUnsupportedFeature = errors.New("relmap: unsupported feature")

	// ErrColumnNotFound is returned when a property path does not resolve to a column.
	ErrColumnNotFound = errors.New("relmap: column not found")
)

// ConfigurationError represents an error in the metadata given at schema build time.
type ConfigurationError struct {
	Entity  string // Entity the error was found on
	Message string
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("relmap: configuration error on entity %s: %s", e.Entity, e.Message)
	}
	return fmt.Sprintf("relmap: configuration error: %s", e.Message)
}

// Is reports whether the target matches ErrConfiguration.
func (e *ConfigurationError) Is(err error) bool {
	return err == ErrConfiguration
}

// NewConfigurationError returns a new ConfigurationError.
func NewConfigurationError(entity, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Entity: entity, Message: fmt.Sprintf(format, args...)}
}

// IsConfigurationError returns true if the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigurationError
	return errors.As(err, &e)
}

// ValidationError represents invalid input to a statement. No SQL is issued
// when it is returned.
type ValidationError struct {
	Name string // Entity or table name
	Err  error  // Underlying validation error
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("relmap: validation failed: %s", e.Err)
	}
	return fmt.Sprintf("relmap: validation failed for %q: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches ErrValidation.
func (e *ValidationError) Is(err error) bool {
	return err == ErrValidation
}

// NewValidationError returns a new ValidationError for the given entity or table.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// Errors wrapped by ValidationError.
var (
	// ErrNoValues is returned when an update has nothing to set.
	ErrNoValues = errors.New("cannot perform update query because update values are not defined")

	// ErrMissingIDs is returned when an entity used for matching has no primary values.
	ErrMissingIDs = errors.New("provided entity does not have ids set")

	// ErrNoMetadata is returned when an entity-only operation targets a plain table.
	ErrNoMetadata = errors.New("operation requires a table with entity metadata")
)

// UnsupportedFeatureError is returned before any SQL is sent when the target
// dialect cannot express the requested clause.
type UnsupportedFeatureError struct {
	Dialect string
	Feature string // e.g. "RETURNING", "LIMIT"
	Op      string // e.g. "update"
}

// Error returns the error string.
func (e *UnsupportedFeatureError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("relmap: %s is not supported by %s for %s statements", e.Feature, e.Dialect, e.Op)
	}
	return fmt.Sprintf("relmap: %s is not supported by %s", e.Feature, e.Dialect)
}

// Is reports whether the target matches ErrUnsupportedFeature.
func (e *UnsupportedFeatureError) Is(err error) bool {
	return err == ErrUnsupportedFeature
}

// NewUnsupportedFeatureError returns a new UnsupportedFeatureError.
func NewUnsupportedFeatureError(dialect, feature, op string) *UnsupportedFeatureError {
	return &UnsupportedFeatureError{Dialect: dialect, Feature: feature, Op: op}
}

// IsUnsupportedFeatureError returns true if the error is an UnsupportedFeatureError.
func IsUnsupportedFeatureError(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedFeatureError
	return errors.As(err, &e)
}

// EntityColumnNotFoundError is returned when a property path given to a
// statement does not resolve to any column.
type EntityColumnNotFoundError struct {
	Entity string
	Path   string
}

// Error returns the error string.
func (e *EntityColumnNotFoundError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("relmap: no such column %q on entity %s", e.Path, e.Entity)
	}
	return fmt.Sprintf("relmap: no such column %q", e.Path)
}

// Is reports whether the target matches ErrColumnNotFound.
func (e *EntityColumnNotFoundError) Is(err error) bool {
	return err == ErrColumnNotFound
}

// NewEntityColumnNotFoundError returns a new EntityColumnNotFoundError.
func NewEntityColumnNotFoundError(entity, path string) *EntityColumnNotFoundError {
	return &EntityColumnNotFoundError{Entity: entity, Path: path}
}

// IsEntityColumnNotFound returns true if the error is an EntityColumnNotFoundError.
func IsEntityColumnNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *EntityColumnNotFoundError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during schema build.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "relmap: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("relmap: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
