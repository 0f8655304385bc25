package oaserrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrFetch indicates the source document could not be retrieved.
	ErrFetch = errors.New("fetch error")

	// ErrTimeout indicates the retrieval exceeded its deadline.
	ErrTimeout = errors.New("fetch timeout")

	// ErrParse indicates a parsing failure or a structurally unusable node.
	ErrParse = errors.New("parse error")

	// ErrTransform indicates a transform step refused to continue.
	ErrTransform = errors.New("transform error")

	// ErrWrite indicates the output could not be persisted.
	ErrWrite = errors.New("write error")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// FetchError represents a failure to retrieve the source document.
type FetchError struct {
	// URL is the address that was requested
	URL string
	// StatusCode is the HTTP status received (0 if no response)
	StatusCode int
	// Attempts is the number of requests made before giving up
	Attempts int
	// Timeout is true when the request deadline expired
	Timeout bool
	// Message describes the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *FetchError) Error() string {
	msg := "fetch error"
	if e.Timeout {
		msg = "fetch timeout"
	}
	if e.URL != "" {
		msg += " for " + e.URL
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrFetch, and ErrTimeout when Timeout is set.
func (e *FetchError) Is(target error) bool {
	if target == ErrFetch {
		return true
	}
	return target == ErrTimeout && e.Timeout
}

// ParseError represents a document that could not be decoded, or a node that
// lacks a field a transform depends on.
type ParseError struct {
	// Path is the file path, URL, or document location (e.g. "paths./a.parameters[0]")
	Path string
	// Line is the line number where the error occurred (0 if unknown)
	Line int
	// Column is the column number where the error occurred (0 if unknown)
	Column int
	// Message describes the parsing failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			msg += fmt.Sprintf(", column %d", e.Column)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// TransformError represents a precondition violation detected by a transform
// step that it cannot safely ignore.
type TransformError struct {
	// Step is the name of the transform that failed (e.g. "strip-path-segment")
	Step string
	// Path is the document location of the problem
	Path string
	// Message describes the violation
	Message string
	// Details lists the individual offending locations, if more than one
	Details []string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *TransformError) Error() string {
	msg := "transform error"
	if e.Step != "" {
		msg += " in " + e.Step
	}
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if len(e.Details) > 0 {
		msg += " [" + strings.Join(e.Details, ", ") + "]"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *TransformError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *TransformError) Is(target error) bool {
	return target == ErrTransform
}

// WriteError represents a failure to persist the output document.
type WriteError struct {
	// Path is the destination file path
	Path string
	// Op is the failing operation: "create", "write", "sync", "rename", "symlink"
	Op string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *WriteError) Error() string {
	msg := "write error"
	if e.Op != "" {
		msg += " (" + e.Op + ")"
	}
	if e.Path != "" {
		msg += " for " + e.Path
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *WriteError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}

// ConfigError represents an invalid configuration or input.
// This includes invalid options, missing required inputs, and conflicting settings.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
