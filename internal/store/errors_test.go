package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarningKinds(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantWarning  bool
		wantNotFound bool
	}{
		{name: "nil error", err: nil},
		{name: "generic error", err: errors.New("boom")},
		{name: "operation error", err: ErrDBOperation},
		{name: "not found", err: ErrTaskNotFound, wantWarning: true, wantNotFound: true},
		{name: "wrapped not found", err: fmt.Errorf("update: %w", ErrTaskNotFound), wantWarning: true, wantNotFound: true},
		{name: "row mapping", err: ErrRowMapping, wantWarning: true},
		{name: "bare warning", err: ErrDBWarning, wantWarning: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantWarning, IsWarning(tt.err))
			assert.Equal(t, tt.wantNotFound, IsNotFoundError(tt.err))
		})
	}
}

func TestWarningKindsStayDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrRowMapping, ErrTaskNotFound))
	assert.False(t, errors.Is(ErrTaskNotFound, ErrRowMapping))
	assert.False(t, errors.Is(ErrTaskNotFound, ErrDBOperation))
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection refused")

	t.Run("with cause", func(t *testing.T) {
		err := NewStoreError("task", "create", ErrDBOperation, cause)
		assert.Equal(t, "create operation on task failed: database operation failed: connection refused", err.Error())
		assert.ErrorIs(t, err, ErrDBOperation)
		assert.ErrorIs(t, err, cause)
		assert.False(t, IsWarning(err))
	})

	t.Run("without cause", func(t *testing.T) {
		err := NewStoreError("task", "delete", ErrTaskNotFound, nil)
		assert.Equal(t, "delete operation on task failed: database data warning: task not found", err.Error())
		assert.True(t, IsNotFoundError(err))
		assert.True(t, IsWarning(err))
	})

	t.Run("as target", func(t *testing.T) {
		var storeErr *StoreError
		wrapped := fmt.Errorf("manager: %w", NewStoreError("task", "get", ErrDBOperation, cause))
		assert.True(t, errors.As(wrapped, &storeErr))
		assert.Equal(t, "get", storeErr.Operation)
	})
}
