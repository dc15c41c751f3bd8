// Package domain holds the error taxonomy and small value types shared by every
// bounded context of the rental service.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so callers can branch without inspecting messages.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindForbidden    Kind = "forbidden"
	KindStorage      Kind = "storage"
	KindUnknown      Kind = "unknown"
)

// ValidationError reports caller-fixable input problems. It is raised before
// any store access.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError creates a ValidationError.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// NewNotFoundError creates a NotFoundError for the given entity and identifier.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports that the requested change collides with existing state,
// e.g. an overlapping active reservation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NewConflictError creates a ConflictError.
func NewConflictError(msg string) error {
	return &ConflictError{Message: msg}
}

// InvalidStateError reports a forbidden state machine transition.
type InvalidStateError struct {
	From string
	To   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// NewInvalidStateError creates an InvalidStateError.
func NewInvalidStateError(from, to string) error {
	return &InvalidStateError{From: from, To: to}
}

// ForbiddenError reports that the caller may not act on the resource.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// NewForbiddenError creates a ForbiddenError.
func NewForbiddenError(msg string) error {
	return &ForbiddenError{Message: msg}
}

// StorageError reports that the backing store could not complete a unit of
// work. The store is left as it was before the call.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err as a StorageError for the given operation.
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// KindOf returns the Kind of the first domain error found in err's chain.
func KindOf(err error) Kind {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		conflict   *ConflictError
		invalid    *InvalidStateError
		forbidden  *ForbiddenError
		storage    *StorageError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &conflict):
		return KindConflict
	case errors.As(err, &invalid):
		return KindInvalidState
	case errors.As(err, &forbidden):
		return KindForbidden
	case errors.As(err, &storage):
		return KindStorage
	default:
		return KindUnknown
	}
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool { return KindOf(err) == KindStorage }
