// Package migrations defines the versioned changes of the task schema and
// runs them with goose. Every object, the goose version table included, is
// created in the configured schema.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// VersionTable is the goose bookkeeping table, created in the task schema.
const VersionTable = "goose_db_version"

// Commands lists the supported migration commands.
var Commands = []string{"up", "down", "status", "version", "reset", "redo"}

// schemaName matches the schema names accepted by Run. goose addresses its
// version table without quoting, so names must not need quotes.
var schemaName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsCommand reports whether name is a supported migration command.
func IsCommand(name string) bool {
	for _, c := range Commands {
		if c == name {
			return true
		}
	}
	return false
}

// gooseLogger adapts the goose logger interface to slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at error level. It does not exit; goose returns the error to
// the caller as well.
func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// VersionTableName returns the goose version table for schema.
func VersionTableName(schema string) string {
	if schema == "" {
		return VersionTable
	}
	return schema + "." + VersionTable
}

// NewProvider builds a goose provider whose migrations and version table
// target schema.
func NewProvider(db *sql.DB, schema string, logger *slog.Logger) (*goose.Provider, error) {
	store, err := database.NewStore(database.DialectPostgres, VersionTableName(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to create version store: %w", err)
	}

	return goose.NewProvider("", db, nil,
		goose.WithStore(store),
		goose.WithDisableGlobalRegistry(true),
		goose.WithGoMigrations(taskMigrations(schema)...),
		goose.WithLogger(&gooseLogger{logger: logger}),
	)
}

// Run executes a goose command against db. The schema is created first so
// that the version table can live inside it.
func Run(ctx context.Context, db *sql.DB, schema, command string, logger *slog.Logger) error {
	if !IsCommand(command) {
		return fmt.Errorf(
			"unknown migration command %q (expected one of %s)",
			command, strings.Join(Commands, ", "),
		)
	}
	if schema != "" && !schemaName.MatchString(schema) {
		return fmt.Errorf("invalid schema name %q: use lower case letters, digits and underscores", schema)
	}
	if db == nil {
		return fmt.Errorf("migration command %q: database is nil", command)
	}
	if logger == nil {
		logger = slog.Default()
	}

	log := logger.With(
		slog.String("correlation_id", uuid.New().String()),
		slog.String("component", "migrations"),
		slog.String("command", command),
	)

	if schema != "" {
		ddl := "CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{schema}.Sanitize()
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			log.Error("failed to create schema", slog.String("schema", schema), slog.String("error", err.Error()))
			return fmt.Errorf("failed to create schema %s: %w", schema, err)
		}
	}

	provider, err := NewProvider(db, schema, log)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	log.Info("starting migration command", slog.String("version_table", VersionTableName(schema)))
	start := time.Now()

	err = dispatch(ctx, provider, command, log)

	duration := time.Since(start)
	if err != nil {
		log.Error("migration command failed",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", duration.Milliseconds()))
		return fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	log.Info("migration command executed successfully",
		slog.Int64("duration_ms", duration.Milliseconds()))
	return nil
}

func dispatch(ctx context.Context, p *goose.Provider, command string, log *slog.Logger) error {
	switch command {
	case "up":
		results, err := p.Up(ctx)
		logResults(log, results)
		return err
	case "down":
		result, err := p.Down(ctx)
		logResults(log, []*goose.MigrationResult{result})
		return err
	case "reset":
		results, err := p.DownTo(ctx, 0)
		logResults(log, results)
		return err
	case "redo":
		down, err := p.Down(ctx)
		logResults(log, []*goose.MigrationResult{down})
		if err != nil {
			return err
		}
		up, err := p.UpByOne(ctx)
		logResults(log, []*goose.MigrationResult{up})
		return err
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			attrs := []any{slog.Int64("version", s.Source.Version), slog.String("state", string(s.State))}
			if !s.AppliedAt.IsZero() {
				attrs = append(attrs, slog.Time("applied_at", s.AppliedAt))
			}
			log.Info("migration status", attrs...)
		}
		return nil
	case "version":
		version, err := p.GetDBVersion(ctx)
		if err != nil {
			return err
		}
		log.Info("current database version", slog.Int64("version", version))
		return nil
	}
	return fmt.Errorf("unknown migration command %q", command)
}

func logResults(log *slog.Logger, results []*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		log.Info("migration applied",
			slog.Int64("version", r.Source.Version),
			slog.String("direction", r.Direction),
			slog.Duration("duration", r.Duration))
	}
}
