package workflow

import (
	"errors"
	"fmt"
)

// ErrorCode identifies well-known domain error categories used by the
// workflow model.
type ErrorCode string

const (
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeDuplicate    ErrorCode = "DUPLICATE_NAME"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeMissing      ErrorCode = "MISSING_REQUIRED"
	ErrCodeType         ErrorCode = "INVALID_TYPE"
	ErrCodeKindMismatch ErrorCode = "KIND_MISMATCH"
	ErrCodeExecution    ErrorCode = "EXECUTION_ERROR"
)

// DomainError represents a typed error enriched with contextual data while
// remaining free from infrastructure dependencies.
type DomainError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As usage.
func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches other DomainError values with the same code and message.
func (e *DomainError) Is(target error) bool {
	var domainErr *DomainError
	if !errors.As(target, &domainErr) {
		return false
	}
	return e.Code == domainErr.Code && e.Message == domainErr.Message
}

// WithContext clones the error with additional contextual metadata.
func (e *DomainError) WithContext(ctx map[string]any) *DomainError {
	if e == nil {
		return nil
	}
	merged := make(map[string]any, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		merged[k] = v
	}
	for k, v := range ctx {
		merged[k] = v
	}
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Context: merged,
	}
}

// HasCode reports whether err wraps a DomainError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

func newDomainError(code ErrorCode, message string, cause error, context map[string]any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

func newValidationError(message string, context map[string]any) *DomainError {
	return newDomainError(ErrCodeValidation, message, nil, context)
}

func newDuplicateError(kind EntityKind, name string) *DomainError {
	return newDomainError(ErrCodeDuplicate, "duplicate entity name", nil, map[string]any{
		"kind": kind.String(),
		"name": name,
	})
}

func newTypeError(parameter string, expected, actual string, cause error) *DomainError {
	return newDomainError(ErrCodeType, "invalid parameter type", cause, map[string]any{
		"parameter": parameter,
		"expected":  expected,
		"actual":    actual,
	})
}

func newMissingFieldError(field string) *DomainError {
	return newDomainError(ErrCodeMissing, "missing required field", nil, map[string]any{
		"field": field,
	})
}

func newKindMismatchError(index int, command string, want, got EntityKind) *DomainError {
	return newDomainError(ErrCodeKindMismatch, "command kind does not match its method", nil, map[string]any{
		"index":   index,
		"command": command,
		"want":    want.String(),
		"got":     got.String(),
	})
}
