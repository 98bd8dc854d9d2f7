package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
)

// taskIDParam is the chi URL parameter holding the task id.
const taskIDParam = "task_id"

// getPathTaskID extracts the integer task id from the URL path.
func getPathTaskID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, taskIDParam)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidID, taskIDParam)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", domain.ErrInvalidID, taskIDParam, raw)
	}
	return id, nil
}

// getStatusQuery reads the optional status filter from the query string.
func getStatusQuery(r *http.Request) (*domain.TaskStatus, error) {
	values, ok := r.URL.Query()["status"]
	if !ok || len(values) == 0 {
		return nil, nil
	}
	status, err := domain.ParseTaskStatus(values[0])
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// decodeAndValidate decodes the JSON body into v and runs struct validation.
// Any failure is reported as a validation error.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := shared.DecodeJSON(w, r, v); err != nil {
		return invalidRequest(err)
	}
	if err := shared.ValidateRequest(v); err != nil {
		return invalidRequest(err)
	}
	return nil
}
