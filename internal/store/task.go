package store

import (
	"context"

	"github.com/phrazzld/todo-api/internal/domain"
)

// TaskStore defines the data-access operations for tasks.
// Implementations return ErrDBOperation for engine faults and ErrDBWarning
// (ErrTaskNotFound, ErrRowMapping) for data faults.
type TaskStore interface {
	// Get returns the task with the given id, or nil with no error when no
	// such task exists.
	Get(ctx context.Context, id int64) (*domain.Task, error)

	// List returns every task, optionally filtered by status. An empty
	// result is an empty slice, never an error.
	List(ctx context.Context, filter domain.ListTasksRequest) ([]domain.Task, error)

	// Create inserts a task and returns the stored row with its new id.
	Create(ctx context.Context, req domain.CreateTaskRequest) (*domain.Task, error)

	// Update writes only the supplied fields of req and returns the stored row.
	// Returns ErrTaskNotFound if no task has the given id.
	Update(ctx context.Context, id int64, req domain.UpdateTaskRequest) (*domain.Task, error)

	// Delete removes the task permanently.
	// Returns ErrTaskNotFound if no task has the given id.
	Delete(ctx context.Context, id int64) (*domain.DeletedTask, error)
}
