// Package main implements the entry point for the todo API server, which
// exposes create, read, update and delete operations on tasks stored in
// PostgreSQL.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/platform/postgres/migrations"
	"github.com/spf13/pflag"
)

// options holds the command-line switches that are not configuration values.
type options struct {
	migrate     string
	autoMigrate bool
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("todo-api: %v", err)
	}
}

// parseFlags builds the flag set, parses args and validates the migration
// command when one is given.
func parseFlags(args []string) (*pflag.FlagSet, *options, error) {
	fs := pflag.NewFlagSet("todo-api", pflag.ContinueOnError)
	config.RegisterFlags(fs)

	opts := &options{}
	fs.StringVar(&opts.migrate, "migrate", "",
		"run a migration command (up, down, status, version, reset, redo) and exit")
	fs.BoolVar(&opts.autoMigrate, "auto-migrate", false,
		"apply pending migrations before serving")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if opts.migrate != "" && !migrations.IsCommand(opts.migrate) {
		return nil, nil, fmt.Errorf("invalid migration command %q", opts.migrate)
	}

	return fs, opts, nil
}

// run loads configuration, then either executes a migration command or
// serves the API until ctx is canceled or a shutdown signal arrives.
func run(ctx context.Context, args []string) error {
	fs, opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		"addr", cfg.Server.Addr(),
		"log_level", cfg.Server.LogLevel,
		"database", cfg.Database.String())

	engine := postgres.NewEngine(cfg.Database, l)
	defer func() {
		if err := engine.Close(); err != nil {
			l.Error("Error closing database engine", "error", err)
		}
	}()

	if opts.migrate != "" {
		return executeMigration(ctx, engine, opts.migrate, l)
	}

	if opts.autoMigrate {
		if err := executeMigration(ctx, engine, "up", l); err != nil {
			return err
		}
	}

	app, err := newApplication(cfg, l, engine)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
