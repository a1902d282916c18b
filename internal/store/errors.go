package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that no record matched a must-exist operation.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict indicates a storage constraint violation.
	ErrConflict = errors.New("store: conflict")
	// ErrUnknownModel indicates a model missing from the schema.
	ErrUnknownModel = errors.New("store: unknown model")
)

// NotFoundError carries the model whose record could not be found.
type NotFoundError struct {
	Model string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("store: %s not found", e.Model)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a NotFoundError for model.
func NotFound(model string) error {
	return &NotFoundError{Model: model}
}

// ConstraintError wraps a constraint violation reported by the storage
// engine. The underlying driver error stays reachable through errors.As.
type ConstraintError struct {
	Model      string
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("store: %s violates %s: %v", e.Model, e.Constraint, e.Err)
	}
	return fmt.Sprintf("store: %s constraint violation: %v", e.Model, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConflict) hold.
func (e *ConstraintError) Is(target error) bool {
	return target == ErrConflict
}
