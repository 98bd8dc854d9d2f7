package domain

import (
	"encoding/json"
	"fmt"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// TaskStatuses lists every valid status in workflow order.
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone}

// ParseTaskStatus converts s into a TaskStatus.
// Returns ErrInvalidTaskStatus if s is not a defined status.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskStatus, s)
	}
	return status, nil
}

// IsValid reports whether s is one of the defined statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// String returns the wire representation of the status.
func (s TaskStatus) String() string {
	return string(s)
}

// UnmarshalJSON rejects any value that is not a defined status, so invalid
// statuses never get past request decoding.
func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTaskStatus, err)
	}
	status, err := ParseTaskStatus(raw)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// Task is a persisted task as returned by create, get, list and update.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status"`
}

// DeletedTask is the response of a delete operation. It only carries the id
// of the removed row.
type DeletedTask struct {
	ID int64 `json:"id"`
}

// CreateTaskRequest holds the fields accepted when creating a task.
// The id is always assigned by the database.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status"`
}

// WithDefaults returns a copy of the request with the default status applied
// when none was supplied.
func (r CreateTaskRequest) WithDefaults() CreateTaskRequest {
	if r.Status == "" {
		r.Status = TaskStatusTodo
	}
	return r
}

// ListTasksRequest filters a task listing. A nil Status lists every task.
type ListTasksRequest struct {
	Status *TaskStatus `json:"status,omitempty"`
}

// UpdateTaskRequest holds a partial update. Only non-nil fields are written;
// nil fields keep their stored values.
type UpdateTaskRequest struct {
	Title       *string     `json:"title"       validate:"omitnil,min=1"`
	Description *string     `json:"description"`
	Status      *TaskStatus `json:"status"`
}

// IsEmpty reports whether the request supplies no field at all.
func (r UpdateTaskRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil
}
