package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/platform/postgres/migrations"
)

// executeMigration runs a goose command against the engine's connection pool.
func executeMigration(
	ctx context.Context,
	engine *postgres.Engine,
	command string,
	l *slog.Logger,
) error {
	db, err := engine.ConnectionSource(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect for migrations: %w", err)
	}

	l.Info("Running migration command", "command", command, "schema", engine.Schema())
	if err := migrations.Run(ctx, db, engine.Schema(), command, l); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	l.Info("Migration command completed", "command", command)
	return nil
}
