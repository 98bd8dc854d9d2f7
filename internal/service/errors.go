package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/todo-api/internal/store"
)

// Manager errors. Every error returned by TaskManager matches ErrManager.
//
// The API layer maps ErrDAO to 500 Internal Server Error and ErrData to
// 404 Not Found.
var (
	// ErrManager is the base of all manager errors.
	ErrManager = errors.New("task manager error")

	// ErrDAO indicates that data access failed for operational reasons.
	ErrDAO = fmt.Errorf("%w: data access failed", ErrManager)

	// ErrData indicates that the requested data is missing or unusable.
	ErrData = fmt.Errorf("%w: incorrect data", ErrManager)
)

// ManagerError wraps a store error with the manager operation and kind.
type ManagerError struct {
	// Operation is the operation that failed (e.g., "create_task", "update_task")
	Operation string
	// Kind is ErrDAO or ErrData
	Kind error
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ManagerError.
func (e *ManagerError) Error() string {
	return fmt.Sprintf("task manager %s failed: %v: %v", e.Operation, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the original error to errors.Is and
// errors.As.
func (e *ManagerError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewManagerError classifies err and wraps it. Data warnings become ErrData;
// everything else, including unexpected errors, becomes ErrDAO.
func NewManagerError(operation string, err error) error {
	if err == nil {
		return nil
	}

	kind := ErrDAO
	if errors.Is(err, store.ErrDBWarning) {
		kind = ErrData
	}

	return &ManagerError{
		Operation: operation,
		Kind:      kind,
		Err:       err,
	}
}
