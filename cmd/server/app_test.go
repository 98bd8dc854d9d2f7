package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestApplication wires an application against a fresh sqlite database.
func newTestApplication(t *testing.T) *application {
	t.Helper()
	l, _ := logger.NewTestLogger(t)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8000,
			LogLevel:        "debug",
			ShutdownTimeout: 2 * time.Second,
		},
		Database: testdb.SQLiteConfig(t),
	}

	engine := postgres.NewEngine(cfg.Database, l)
	t.Cleanup(func() { _ = engine.Close() })

	app, err := newApplication(cfg, l, engine)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)
	return app
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewApplication_Wiring(t *testing.T) {
	app := newTestApplication(t)

	assert.NotNil(t, app.taskStore)
	assert.NotNil(t, app.taskManager)
	assert.NotNil(t, app.eventEmitter)
	assert.NotNil(t, app.taskStream)
}

func TestRouter_Health(t *testing.T) {
	router := newTestApplication(t).setupRouter()

	w := doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestRouter_TaskLifecycle(t *testing.T) {
	router := newTestApplication(t).setupRouter()

	w := doRequest(router, http.MethodPost, "/tasks/", `{"title":"Buy milk","description":"2 litres"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"id":1,"title":"Buy milk","description":"2 litres","status":"todo"}`, w.Body.String())

	w = doRequest(router, http.MethodGet, "/tasks/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"title":"Buy milk","description":"2 litres","status":"todo"}`, w.Body.String())

	w = doRequest(router, http.MethodPut, "/tasks/1", `{"status":"in_progress"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"title":"Buy milk","description":"2 litres","status":"in_progress"}`, w.Body.String())

	w = doRequest(router, http.MethodGet, "/tasks/?status=in_progress", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []domain.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(1), tasks[0].ID)

	w = doRequest(router, http.MethodDelete, "/tasks/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1}`, w.Body.String())

	w = doRequest(router, http.MethodGet, "/tasks/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))

	w = doRequest(router, http.MethodDelete, "/tasks/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Incorrect data"}`, w.Body.String())
}

func TestRouter_StreamReceivesChanges(t *testing.T) {
	app := newTestApplication(t)
	server := httptest.NewServer(app.setupRouter())
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/tasks"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return app.taskStream.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(server.URL+"/tasks/", "application/json",
		strings.NewReader(`{"title":"Buy milk"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event events.TaskEvent
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, events.TaskCreated, event.Type)
	assert.Equal(t, int64(1), event.TaskID)

	var task domain.Task
	require.NoError(t, event.UnmarshalPayload(&task))
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, domain.TaskStatusTodo, task.Status)
}
