package errors

import (
	"fmt"
)

// ParseError represents a workflow or session document that could not be decoded.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures workflow or session validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutionError represents a method that failed while processing an entity.
type ExecutionError struct {
	Entity string
	Method string
	Err    error
}

// NewExecutionError constructs an ExecutionError.
func NewExecutionError(entity, method string, err error) error {
	return &ExecutionError{Entity: entity, Method: method, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Entity != "" && e.Method != "":
		return fmt.Sprintf("execution error on %s [%s]: %v", e.Entity, e.Method, e.Err)
	case e.Entity != "":
		return fmt.Sprintf("execution error on %s: %v", e.Entity, e.Err)
	case e.Method != "":
		return fmt.Sprintf("execution error [%s]: %v", e.Method, e.Err)
	}
	return fmt.Sprintf("execution error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MethodError indicates issues within method registration or lookup.
type MethodError struct {
	Method  string
	Message string
	Err     error
}

// NewMethodError constructs a MethodError for the given method name.
func NewMethodError(method string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &MethodError{Method: method, Message: message, Err: err}
}

func (e *MethodError) Error() string {
	if e == nil {
		return ""
	}
	if e.Method != "" {
		return fmt.Sprintf("method error [%s]: %s", e.Method, e.Message)
	}
	return fmt.Sprintf("method error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *MethodError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
