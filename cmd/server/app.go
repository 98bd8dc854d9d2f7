package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/todo-api/internal/api"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/store"
)

// application holds all the dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	engine *postgres.Engine

	taskStore    store.TaskStore
	taskManager  service.TaskManager
	eventEmitter *events.InMemoryEventEmitter
	taskStream   *api.TaskStream
}

// newApplication wires the DAO, manager, event emitter and task stream on top
// of an already constructed engine. No connection is opened here; the engine
// connects lazily on the first request.
func newApplication(cfg *config.Config, l *slog.Logger, engine *postgres.Engine) (*application, error) {
	app := &application{
		config: cfg,
		logger: l,
		engine: engine,
	}

	app.taskStore = postgres.NewTaskDAO(engine, engine.Schema(), l)

	app.taskStream = api.NewTaskStream(l)
	app.eventEmitter = events.NewInMemoryEventEmitter(l)
	app.eventEmitter.RegisterHandler(app.taskStream)

	var err error
	app.taskManager, err = service.NewTaskManager(app.taskStore, app.eventEmitter, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create task manager: %w", err)
	}

	l.Info("Application initialized successfully")
	return app, nil
}

// Run starts the HTTP server and blocks until it has shut down.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup disconnects stream clients. The engine is closed by the caller
// that created it.
func (app *application) cleanup() {
	if app.taskStream != nil {
		app.taskStream.Close()
	}
}
