package service

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, emitter events.EventEmitter) (TaskManager, *MockTaskStore) {
	t.Helper()
	l, _ := logger.NewTestLogger(t)
	tasks := &MockTaskStore{}
	m, err := NewTaskManager(tasks, emitter, l)
	require.NoError(t, err)
	return m, tasks
}

func eventOfType(eventType string, taskID int64) interface{} {
	return mock.MatchedBy(func(e *events.TaskEvent) bool {
		return e.Type == eventType && e.TaskID == taskID
	})
}

var (
	errConn     = store.NewStoreError("task", "op", store.ErrDBOperation, errors.New("connection refused"))
	errNotFound = store.NewStoreError("task", "op", store.ErrTaskNotFound, nil)
)

func TestNewTaskManager(t *testing.T) {
	_, err := NewTaskManager(nil, nil, nil)
	assert.Error(t, err)

	m, err := NewTaskManager(&MockTaskStore{}, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestTaskManager_CreateTask(t *testing.T) {
	ctx := context.Background()
	req := domain.CreateTaskRequest{Title: "Buy milk"}
	task := &domain.Task{ID: 1, Title: "Buy milk", Status: domain.TaskStatusTodo}

	t.Run("success emits created event", func(t *testing.T) {
		emitter := &MockEventEmitter{}
		emitter.On("EmitEvent", mock.Anything, eventOfType(events.TaskCreated, 1)).Return(nil)
		m, tasks := newTestManager(t, emitter)
		tasks.On("Create", mock.Anything, req).Return(task, nil)

		got, err := m.CreateTask(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, task, got)
		tasks.AssertExpectations(t)
		emitter.AssertExpectations(t)
	})

	t.Run("emitter failure does not fail the operation", func(t *testing.T) {
		emitter := &MockEventEmitter{}
		emitter.On("EmitEvent", mock.Anything, mock.Anything).Return(errors.New("stream closed"))
		m, tasks := newTestManager(t, emitter)
		tasks.On("Create", mock.Anything, req).Return(task, nil)

		got, err := m.CreateTask(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, task, got)
	})

	t.Run("store failure maps to DAO error without event", func(t *testing.T) {
		emitter := &MockEventEmitter{}
		m, tasks := newTestManager(t, emitter)
		tasks.On("Create", mock.Anything, req).Return(nil, errConn)

		got, err := m.CreateTask(ctx, req)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrDAO)
		assert.ErrorIs(t, err, store.ErrDBOperation)
		emitter.AssertNotCalled(t, "EmitEvent", mock.Anything, mock.Anything)
	})
}

func TestTaskManager_GetTask(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		m, tasks := newTestManager(t, nil)
		task := &domain.Task{ID: 3, Title: "x", Status: domain.TaskStatusDone}
		tasks.On("Get", mock.Anything, int64(3)).Return(task, nil)

		got, err := m.GetTask(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, task, got)
	})

	t.Run("missing is not an error", func(t *testing.T) {
		m, tasks := newTestManager(t, nil)
		tasks.On("Get", mock.Anything, int64(4)).Return(nil, nil)

		got, err := m.GetTask(ctx, 4)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("mapping failure is a data error", func(t *testing.T) {
		m, tasks := newTestManager(t, nil)
		tasks.On("Get", mock.Anything, int64(5)).
			Return(nil, store.NewStoreError("task", "get", store.ErrRowMapping, errors.New("bad status")))

		_, err := m.GetTask(ctx, 5)
		assert.ErrorIs(t, err, ErrData)
		assert.ErrorIs(t, err, store.ErrRowMapping)
	})
}

func TestTaskManager_ListTasks(t *testing.T) {
	ctx := context.Background()
	done := domain.TaskStatusDone
	filter := domain.ListTasksRequest{Status: &done}

	m, tasks := newTestManager(t, nil)
	tasks.On("List", mock.Anything, filter).Return([]domain.Task{{ID: 1, Title: "a", Status: done}}, nil)
	tasks.On("List", mock.Anything, domain.ListTasksRequest{}).Return(nil, errConn)

	got, err := m.ListTasks(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = m.ListTasks(ctx, domain.ListTasksRequest{})
	assert.ErrorIs(t, err, ErrDAO)
}

func TestTaskManager_UpdateTask(t *testing.T) {
	ctx := context.Background()
	done := domain.TaskStatusDone
	req := domain.UpdateTaskRequest{Status: &done}

	t.Run("success emits updated event", func(t *testing.T) {
		emitter := &MockEventEmitter{}
		emitter.On("EmitEvent", mock.Anything, eventOfType(events.TaskUpdated, 1)).Return(nil)
		m, tasks := newTestManager(t, emitter)
		task := &domain.Task{ID: 1, Title: "Buy milk", Status: done}
		tasks.On("Update", mock.Anything, int64(1), req).Return(task, nil)

		got, err := m.UpdateTask(ctx, 1, req)
		require.NoError(t, err)
		assert.Equal(t, task, got)
		emitter.AssertExpectations(t)
	})

	t.Run("missing task is a data error", func(t *testing.T) {
		m, tasks := newTestManager(t, nil)
		tasks.On("Update", mock.Anything, int64(9), req).Return(nil, errNotFound)

		_, err := m.UpdateTask(ctx, 9, req)
		assert.ErrorIs(t, err, ErrData)
		assert.ErrorIs(t, err, ErrManager)
		assert.True(t, store.IsNotFoundError(err))
	})

	t.Run("store failure is a DAO error", func(t *testing.T) {
		m, tasks := newTestManager(t, nil)
		tasks.On("Update", mock.Anything, int64(1), req).Return(nil, errConn)

		_, err := m.UpdateTask(ctx, 1, req)
		assert.ErrorIs(t, err, ErrDAO)
	})
}

func TestTaskManager_DeleteTask(t *testing.T) {
	ctx := context.Background()

	t.Run("success emits deleted event", func(t *testing.T) {
		emitter := &MockEventEmitter{}
		emitter.On("EmitEvent", mock.Anything, eventOfType(events.TaskDeleted, 2)).Return(nil)
		m, tasks := newTestManager(t, emitter)
		tasks.On("Delete", mock.Anything, int64(2)).Return(&domain.DeletedTask{ID: 2}, nil)

		got, err := m.DeleteTask(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, &domain.DeletedTask{ID: 2}, got)
		emitter.AssertExpectations(t)
	})

	t.Run("missing task is a data error", func(t *testing.T) {
		m, tasks := newTestManager(t, nil)
		tasks.On("Delete", mock.Anything, int64(2)).Return(nil, errNotFound)

		_, err := m.DeleteTask(ctx, 2)
		assert.ErrorIs(t, err, ErrData)
	})

	t.Run("store failure is a DAO error", func(t *testing.T) {
		m, tasks := newTestManager(t, nil)
		tasks.On("Delete", mock.Anything, int64(2)).Return(nil, errConn)

		_, err := m.DeleteTask(ctx, 2)
		assert.ErrorIs(t, err, ErrDAO)
	})
}
