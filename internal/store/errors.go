package store

import (
	"errors"
	"fmt"
)

// Data-access errors returned by TaskStore implementations.
var (
	// ErrDBOperation is returned when the database engine or the SQL layer
	// fails: connectivity, constraint violations, syntax errors, timeouts.
	ErrDBOperation = errors.New("database operation failed")

	// ErrDBWarning is returned when the database answered but the result
	// cannot be turned into the requested object.
	ErrDBWarning = errors.New("database data warning")

	// ErrTaskNotFound indicates that an update or delete matched no row.
	ErrTaskNotFound = fmt.Errorf("%w: task not found", ErrDBWarning)

	// ErrRowMapping indicates that a returned row could not be mapped to a
	// task, for example a null title or a status outside the enumeration.
	ErrRowMapping = fmt.Errorf("%w: row mapping failed", ErrDBWarning)
)

// IsNotFoundError checks if the error reports a missing task.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

// IsWarning checks if the error is any kind of data warning.
func IsWarning(err error) bool {
	return errors.Is(err, ErrDBWarning)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "task")
	Operation string // The operation that failed (e.g., "create", "update")
	Kind      error  // ErrDBOperation or one of the ErrDBWarning errors
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %v: %v", e.Operation, e.Entity, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %v", e.Operation, e.Entity, e.Kind)
}

// Unwrap returns both the kind and the original error so errors.Is and
// errors.As can match either of them.
func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewStoreError creates a new StoreError with the given entity, operation, kind, and wrapped error.
func NewStoreError(entity, operation string, kind, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Kind:      kind,
		Err:       err,
	}
}
