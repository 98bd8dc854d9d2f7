package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStackRouter wires the real handler, manager, DAO and engine against cfg.
func newStackRouter(t *testing.T, cfg config.DatabaseConfig) http.Handler {
	t.Helper()
	l, _ := logger.NewTestLogger(t)

	engine := postgres.NewEngine(cfg, l)
	t.Cleanup(func() { _ = engine.Close() })

	manager, err := service.NewTaskManager(postgres.NewTaskDAO(engine, cfg.Schema, l), nil, l)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/tasks", NewTaskHandler(manager, l).Routes)
	return r
}

func decodeTask(t *testing.T, w *httptest.ResponseRecorder) domain.Task {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var task domain.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	return task
}

func TestTaskAPI_Scenario(t *testing.T) {
	testdb.ForEachBackend(t, func(t *testing.T, cfg config.DatabaseConfig) {
		h := newStackRouter(t, cfg)

		w := doRequest(h, http.MethodPost, "/tasks/", `{"title":"Buy milk"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":1,"title":"Buy milk","description":null,"status":"todo"}`, w.Body.String())

		w = doRequest(h, http.MethodPut, "/tasks/1", `{"status":"done"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":1,"title":"Buy milk","description":null,"status":"done"}`, w.Body.String())

		w = doRequest(h, http.MethodDelete, "/tasks/1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":1}`, w.Body.String())

		w = doRequest(h, http.MethodGet, "/tasks/1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "null", string(bytes.TrimSpace(w.Body.Bytes())))
	})
}

func TestTaskAPI_Properties(t *testing.T) {
	testdb.ForEachBackend(t, func(t *testing.T, cfg config.DatabaseConfig) {
		h := newStackRouter(t, cfg)

		first := decodeTask(t, doRequest(h, http.MethodPost, "/tasks/",
			`{"title":"Write report","description":"quarterly","status":"in_progress"}`))
		second := decodeTask(t, doRequest(h, http.MethodPost, "/tasks/",
			`{"title":"File taxes","status":"done"}`))
		assert.NotEqual(t, first.ID, second.ID)

		t.Run("round trip", func(t *testing.T) {
			got := decodeTask(t, doRequest(h, http.MethodGet, "/tasks/"+jsonID(first.ID), ""))
			assert.Equal(t, first, got)
			require.NotNil(t, got.Description)
			assert.Equal(t, "quarterly", *got.Description)
		})

		t.Run("list all and filtered", func(t *testing.T) {
			w := doRequest(h, http.MethodGet, "/tasks/", "")
			require.Equal(t, http.StatusOK, w.Code)
			var all []domain.Task
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
			assert.Len(t, all, 2)

			w = doRequest(h, http.MethodGet, "/tasks/?status=done", "")
			var done []domain.Task
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &done))
			require.Len(t, done, 1)
			assert.Equal(t, second.ID, done[0].ID)

			w = doRequest(h, http.MethodGet, "/tasks/?status=todo", "")
			assert.JSONEq(t, `[]`, w.Body.String())
		})

		t.Run("partial update keeps other fields", func(t *testing.T) {
			got := decodeTask(t, doRequest(h, http.MethodPut, "/tasks/"+jsonID(first.ID), `{"title":"Write summary"}`))
			assert.Equal(t, "Write summary", got.Title)
			assert.Equal(t, first.Description, got.Description)
			assert.Equal(t, first.Status, got.Status)
		})

		t.Run("missing task", func(t *testing.T) {
			w := doRequest(h, http.MethodPut, "/tasks/424242", `{"title":"x"}`)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.JSONEq(t, `{"detail":"Incorrect data"}`, w.Body.String())

			w = doRequest(h, http.MethodDelete, "/tasks/424242", "")
			assert.Equal(t, http.StatusNotFound, w.Code)

			w = doRequest(h, http.MethodGet, "/tasks/424242", "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "null", string(bytes.TrimSpace(w.Body.Bytes())))
		})
	})
}

func TestTaskAPI_DatabaseUnavailable(t *testing.T) {
	h := newStackRouter(t, config.DatabaseConfig{Driver: "nope", URL: "nowhere"})

	for _, req := range []struct{ method, path, body string }{
		{http.MethodPost, "/tasks/", `{"title":"x"}`},
		{http.MethodGet, "/tasks/1", ""},
		{http.MethodGet, "/tasks/", ""},
		{http.MethodPut, "/tasks/1", `{"title":"x"}`},
		{http.MethodDelete, "/tasks/1", ""},
	} {
		w := doRequest(h, req.method, req.path, req.body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, req.method+" "+req.path)
		assert.JSONEq(t, `{"detail":"Internal error"}`, w.Body.String())
	}
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
