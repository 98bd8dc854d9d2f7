package testdb

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "github.com/mattn/go-sqlite3"    // sqlite3 driver
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/platform/postgres/migrations"
	"github.com/stretchr/testify/require"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

// PostgresSchema is the schema created by the migrations.
const PostgresSchema = "todo_list"

// sqliteSchema mirrors the PostgreSQL task table. The status enumeration is
// enforced with a CHECK constraint.
const sqliteSchema = `
CREATE TABLE task (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT DEFAULT '',
	status TEXT NOT NULL DEFAULT 'todo' CHECK (status IN ('todo', 'in_progress', 'done'))
)`

// IsIntegrationTestEnvironment returns true if the DATABASE_URL environment
// variable is set, indicating that PostgreSQL tests can be run.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// GetTestDatabaseURL returns the PostgreSQL URL for tests.
func GetTestDatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// SQLiteConfig creates an SQLite database file holding an empty task table
// and returns a configuration pointing at it. The file is removed when the
// test finishes.
func SQLiteConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "todo.db") + "?_busy_timeout=5000"

	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err, "Failed to open sqlite database")
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	_, err = db.ExecContext(ctx, sqliteSchema)
	require.NoError(t, err, "Failed to create task table")

	return config.DatabaseConfig{
		Driver:           "sqlite3",
		URL:              dsn,
		MaxOpenConns:     4,
		ConnectTimeout:   TestTimeout,
		StatementTimeout: TestTimeout,
	}
}

// PostgresConfig migrates the database named by DATABASE_URL, empties the
// task table and returns a configuration pointing at it. The test is skipped
// when DATABASE_URL is not set.
func PostgresConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	return PostgresConfigWithSchema(t, PostgresSchema)
}

// PostgresConfigWithSchema is PostgresConfig for an arbitrary schema. A schema
// other than PostgresSchema is dropped when the test finishes.
func PostgresConfigWithSchema(t *testing.T, schema string) config.DatabaseConfig {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skip("DATABASE_URL not set - skipping PostgreSQL test")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "Failed to open database connection")
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 4*TestTimeout)
	defer cancel()

	require.NoError(t, db.PingContext(ctx), "Database ping failed")
	require.NoError(t, migrations.Run(ctx, db, schema, "up", nil), "Failed to run migrations")

	table := pgx.Identifier{schema, "task"}.Sanitize()
	_, err = db.ExecContext(ctx, "TRUNCATE "+table+" RESTART IDENTITY")
	require.NoError(t, err, "Failed to empty task table")

	if schema != PostgresSchema {
		t.Cleanup(func() { dropSchema(t, dbURL, schema) })
	}

	return config.DatabaseConfig{
		Driver:           "pgx",
		URL:              dbURL,
		Schema:           schema,
		MaxOpenConns:     4,
		ConnectTimeout:   TestTimeout,
		StatementTimeout: TestTimeout,
	}
}

func dropSchema(t *testing.T, dbURL, schema string) {
	t.Helper()

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		t.Logf("Failed to open database to drop schema %s: %v", schema, err)
		return
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	if _, err := db.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+pgx.Identifier{schema}.Sanitize()+" CASCADE"); err != nil {
		t.Logf("Failed to drop schema %s: %v", schema, err)
	}
}

// ForEachBackend runs fn as a subtest against SQLite and, when DATABASE_URL
// is set, against PostgreSQL. Each run starts from an empty task table.
func ForEachBackend(t *testing.T, fn func(t *testing.T, cfg config.DatabaseConfig)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		fn(t, SQLiteConfig(t))
	})
	t.Run("postgres", func(t *testing.T) {
		fn(t, PostgresConfig(t))
	})
}
