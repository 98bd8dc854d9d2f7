package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pressly/goose/v3"
)

// createTaskVersion is the version of the migration creating the task table.
const createTaskVersion = 1

// qualifier returns a function quoting object names inside schema. An empty
// schema leaves names unqualified.
func qualifier(schema string) func(name string) string {
	return func(name string) string {
		if schema == "" {
			return pgx.Identifier{name}.Sanitize()
		}
		return pgx.Identifier{schema, name}.Sanitize()
	}
}

// createTaskUp returns the statements creating the task status enum, the task
// table and its status index in schema.
func createTaskUp(schema string) []string {
	q := qualifier(schema)
	return []string{
		fmt.Sprintf("CREATE TYPE %s AS ENUM ('todo', 'in_progress', 'done')", q("task_status")),
		fmt.Sprintf(`CREATE TABLE %s (
    id integer GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    title varchar NOT NULL,
    description varchar DEFAULT '',
    status %s NOT NULL DEFAULT 'todo'
)`, q("task"), q("task_status")),
		fmt.Sprintf("CREATE INDEX idx_task_status ON %s (status)", q("task")),
	}
}

// createTaskDown returns the statements undoing createTaskUp.
func createTaskDown(schema string) []string {
	q := qualifier(schema)
	return []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", q("task")),
		fmt.Sprintf("DROP TYPE IF EXISTS %s", q("task_status")),
	}
}

// execAll runs stmts in order inside the migration transaction.
func execAll(stmts []string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

// taskMigrations returns every migration of the task store, targeting schema.
func taskMigrations(schema string) []*goose.Migration {
	return []*goose.Migration{
		goose.NewGoMigration(createTaskVersion,
			&goose.GoFunc{RunTx: execAll(createTaskUp(schema))},
			&goose.GoFunc{RunTx: execAll(createTaskDown(schema))},
		),
	}
}
