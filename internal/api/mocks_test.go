package api

import (
	"context"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockTaskManager mocks the service.TaskManager interface
type MockTaskManager struct {
	mock.Mock
}

func (m *MockTaskManager) CreateTask(ctx context.Context, req domain.CreateTaskRequest) (*domain.Task, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskManager) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskManager) ListTasks(ctx context.Context, req domain.ListTasksRequest) ([]domain.Task, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}

func (m *MockTaskManager) UpdateTask(
	ctx context.Context,
	id int64,
	req domain.UpdateTaskRequest,
) (*domain.Task, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskManager) DeleteTask(ctx context.Context, id int64) (*domain.DeletedTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeletedTask), args.Error(1)
}
