package model

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema matches every *SchemaError.
	ErrSchema = errors.New("schema error")

	// ErrConfig matches every *ConfigError.
	ErrConfig = errors.New("invalid configuration")

	// ErrEmptyProfile matches every *EmptyProfileError.
	ErrEmptyProfile = errors.New("empty profile")
)

// SchemaError indicates that an expected column is missing or malformed,
// or that the record set itself is unusable (duplicate or empty ids).
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type SchemaError struct {
	Column string
	Reason string
	cause  error
}

// NewSchemaError creates a SchemaError for column.
func NewSchemaError(column, format string, args ...any) *SchemaError {
	return &SchemaError{Column: column, Reason: fmt.Sprintf(format, args...)}
}

// WrapSchemaError creates a SchemaError with an underlying cause.
func WrapSchemaError(column string, cause error, format string, args ...any) *SchemaError {
	return &SchemaError{Column: column, Reason: fmt.Sprintf(format, args...), cause: cause}
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return "schema error: " + e.Reason
	}
	return fmt.Sprintf("schema error: column %q: %s", e.Column, e.Reason)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

func (e *SchemaError) Unwrap() error { return e.cause }

// ConfigError indicates an invalid parameter.
type ConfigError struct {
	Param  string
	Value  any
	Reason string
}

// NewConfigError creates a ConfigError for param.
func NewConfigError(param string, value any, format string, args ...any) *ConfigError {
	return &ConfigError{Param: param, Value: value, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Param, e.Value, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// EmptyProfileError is returned by predict when none of the portfolio ids
// could be resolved. Stats carries the diagnostic counts of the failed call.
type EmptyProfileError struct {
	Stats MatchStats
}

func (e *EmptyProfileError) Error() string {
	return fmt.Sprintf("empty profile: none of %d portfolio ids found in model", e.Stats.Total)
}

func (e *EmptyProfileError) Is(target error) bool { return target == ErrEmptyProfile }
