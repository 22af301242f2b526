package textsort

import (
	"errors"
	"fmt"
)

var errUnknownFieldType = errors.New("unknown field type")

// ParseError reports a line that could not produce the keys its fields
// require.
type ParseError struct {
	// Field is the label of the field definition that failed.
	Field string
	// Value is the raw field or line value that failed to parse.
	Value string
	// Cause is the underlying parse failure.
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s (value: %q): %v", e.Field, e.Value, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ChunkError locates a failure within one chunk of an input file.
type ChunkError struct {
	// Path is the input file the chunk belongs to.
	Path string
	// Offset is the chunk's starting byte offset.
	Offset int64
	// Cause is the underlying failure.
	Cause error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("file %s, chunk offset %d: %v", e.Path, e.Offset, e.Cause)
}

func (e *ChunkError) Unwrap() error {
	return e.Cause
}

// ConfigError represents an error in configuration parameters
type ConfigError struct {
	// Field is the name of the configuration field that's invalid
	Field string
	// Value is the invalid value provided
	Value interface{}
	// Reason explains why the value is invalid
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field %s (value: %v): %s", e.Field, e.Value, e.Reason)
}

func errMissingField(index, have int, sep byte) error {
	return fmt.Errorf("requested comparison for field %d but the line has only %d fields using %q as field separator",
		index, have, string(sep))
}

// newDiskError wraps an underlying I/O error with the operation and path.
func newDiskError(err error, operation, path string) error {
	if path != "" {
		return fmt.Errorf("disk error during %s on %s: %w", operation, path, err)
	}
	return fmt.Errorf("disk error during %s: %w", operation, err)
}

// newResourceError wraps an error raising or restoring a process resource
// limit.
func newResourceError(err error, resource, context string) error {
	if context != "" {
		return fmt.Errorf("resource error (%s) in %s: %w", resource, context, err)
	}
	return fmt.Errorf("resource error (%s): %w", resource, err)
}
