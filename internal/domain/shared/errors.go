package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure surfaced at the core boundary.
// Failures are modeled as a tagged sum, never as exceptions for control flow.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindValidation          ErrorKind = "VALIDATION"
	KindConstraintHard      ErrorKind = "CONSTRAINT_VIOLATION_HARD"
	KindConstraintSoft      ErrorKind = "CONSTRAINT_VIOLATION_SOFT"
	KindTimeConflict        ErrorKind = "TIME_CONFLICT"
	KindNoCompatibleBerth   ErrorKind = "NO_COMPATIBLE_BERTH"
	KindNoSlotFound         ErrorKind = "NO_SLOT_FOUND"
	KindTimeout             ErrorKind = "TIMEOUT"
	KindTransientStore      ErrorKind = "TRANSIENT_STORE"
	KindUpstreamUnavailable ErrorKind = "UPSTREAM_UNAVAILABLE"
)

// Error is the domain error type. Code is a stable machine code
// (constraint rule codes like V-DIM-001 land here), Message is the
// short operator-facing text, Details carries structured context.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetail attaches a structured detail and returns the error for chaining
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewError creates a domain error of the given kind
func NewError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// WrapError creates a domain error wrapping an underlying cause
func WrapError(kind ErrorKind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: cause}
}

// NotFoundError reports a missing entity by name and id
func NotFoundError(entity string, id interface{}) *Error {
	return NewError(KindNotFound, "E-NF-001", fmt.Sprintf("%s %v not found", entity, id)).
		WithDetail("entity", entity).WithDetail("id", id)
}

// ValidationError reports an invalid field value
func ValidationError(field, message string) *Error {
	return NewError(KindValidation, "E-VAL-001", fmt.Sprintf("%s: %s", field, message)).
		WithDetail("field", field)
}

// TimeConflictError reports a berth-occupancy collision with the conflicting schedule ids
func TimeConflictError(conflictIDs []int) *Error {
	return NewError(KindTimeConflict, "E-CNF-001", "requested window overlaps an existing schedule").
		WithDetail("conflicts", conflictIDs)
}

// TransientStoreError wraps a retryable persistence failure
func TransientStoreError(op string, cause error) *Error {
	return WrapError(kindForStoreError(cause), "E-STO-001", fmt.Sprintf("store operation %s failed", op), cause)
}

func kindForStoreError(cause error) ErrorKind {
	var de *Error
	if errors.As(cause, &de) {
		return de.Kind
	}
	return KindTransientStore
}

// KindOf extracts the ErrorKind from any error in the chain,
// defaulting to TransientStore for unclassified failures.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindTransientStore
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
