package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// TaskManager provides task operations to the API layer.
type TaskManager interface {
	// CreateTask stores a new task and returns it with its assigned id.
	CreateTask(ctx context.Context, req domain.CreateTaskRequest) (*domain.Task, error)

	// GetTask returns the task with the given id, or nil if it does not exist.
	GetTask(ctx context.Context, id int64) (*domain.Task, error)

	// ListTasks returns all tasks matching the filter.
	ListTasks(ctx context.Context, req domain.ListTasksRequest) ([]domain.Task, error)

	// UpdateTask applies a partial update and returns the stored task.
	UpdateTask(ctx context.Context, id int64, req domain.UpdateTaskRequest) (*domain.Task, error)

	// DeleteTask removes the task and returns its id.
	DeleteTask(ctx context.Context, id int64) (*domain.DeletedTask, error)
}

// taskManagerImpl implements the TaskManager interface
type taskManagerImpl struct {
	tasks   store.TaskStore
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewTaskManager creates a new TaskManager.
// emitter may be nil, in which case no change events are published.
// It returns an error if the task store is nil.
func NewTaskManager(
	tasks store.TaskStore,
	emitter events.EventEmitter,
	l *slog.Logger,
) (TaskManager, error) {
	if tasks == nil {
		return nil, errors.New("task store cannot be nil")
	}
	if l == nil {
		l = slog.Default()
	}

	return &taskManagerImpl{
		tasks:   tasks,
		emitter: emitter,
		logger:  l.With(slog.String("component", "task_manager")),
	}, nil
}

// CreateTask implements TaskManager.CreateTask
func (m *taskManagerImpl) CreateTask(
	ctx context.Context,
	req domain.CreateTaskRequest,
) (*domain.Task, error) {
	task, err := m.tasks.Create(ctx, req)
	if err != nil {
		return nil, m.fail(ctx, "create_task", err)
	}
	m.emit(ctx, events.TaskCreated, task.ID, task)
	return task, nil
}

// GetTask implements TaskManager.GetTask
func (m *taskManagerImpl) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := m.tasks.Get(ctx, id)
	if err != nil {
		return nil, m.fail(ctx, "get_task", err, slog.Int64("task_id", id))
	}
	return task, nil
}

// ListTasks implements TaskManager.ListTasks
func (m *taskManagerImpl) ListTasks(
	ctx context.Context,
	req domain.ListTasksRequest,
) ([]domain.Task, error) {
	tasks, err := m.tasks.List(ctx, req)
	if err != nil {
		return nil, m.fail(ctx, "list_tasks", err)
	}
	return tasks, nil
}

// UpdateTask implements TaskManager.UpdateTask
func (m *taskManagerImpl) UpdateTask(
	ctx context.Context,
	id int64,
	req domain.UpdateTaskRequest,
) (*domain.Task, error) {
	task, err := m.tasks.Update(ctx, id, req)
	if err != nil {
		return nil, m.fail(ctx, "update_task", err, slog.Int64("task_id", id))
	}
	m.emit(ctx, events.TaskUpdated, task.ID, task)
	return task, nil
}

// DeleteTask implements TaskManager.DeleteTask
func (m *taskManagerImpl) DeleteTask(ctx context.Context, id int64) (*domain.DeletedTask, error) {
	deleted, err := m.tasks.Delete(ctx, id)
	if err != nil {
		return nil, m.fail(ctx, "delete_task", err, slog.Int64("task_id", id))
	}
	m.emit(ctx, events.TaskDeleted, deleted.ID, deleted)
	return deleted, nil
}

func (m *taskManagerImpl) fail(ctx context.Context, op string, err error, attrs ...any) error {
	merr := NewManagerError(op, err)
	attrs = append(attrs, slog.String("operation", op), slog.String("error", err.Error()))

	log := logger.FromContextOrDefault(ctx, m.logger)
	if errors.Is(merr, ErrData) {
		log.Warn("task operation rejected", attrs...)
	} else {
		log.Error("task operation failed", attrs...)
	}
	return merr
}

// emit publishes a change event. Failures are logged and never affect the
// result of the operation.
func (m *taskManagerImpl) emit(ctx context.Context, eventType string, taskID int64, payload interface{}) {
	if m.emitter == nil {
		return
	}

	log := logger.FromContextOrDefault(ctx, m.logger)
	event, err := events.NewTaskEvent(eventType, taskID, payload)
	if err != nil {
		log.Error("failed to build task event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := m.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit task event",
			slog.String("event_type", eventType),
			slog.Int64("task_id", taskID),
			slog.String("error", err.Error()))
	}
}
