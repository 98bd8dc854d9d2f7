package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/redact"
)

// Engine owns the process-wide connection pool. It is created once at startup
// and shared by every DAO.
type Engine struct {
	cfg    config.DatabaseConfig
	logger *slog.Logger

	mu sync.Mutex
	db *sql.DB
}

// NewEngine stores the database settings. No connection is made until the
// pool is first needed.
func NewEngine(cfg config.DatabaseConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "db_engine")),
	}
}

// Schema returns the configured schema name.
func (e *Engine) Schema() string {
	return e.cfg.Schema
}

// ConnectionSource returns the pool, creating and pinging it on first use.
// A failed attempt is not cached so a later call retries.
func (e *Engine) ConnectionSource(ctx context.Context) (*sql.DB, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db != nil {
		return e.db, nil
	}

	log := logger.FromContextOrDefault(ctx, e.logger)

	db, err := sql.Open(e.cfg.Driver, e.cfg.DSN())
	if err != nil {
		log.Error("failed to open database",
			slog.String("target", e.cfg.String()),
			slog.String("error", redact.Error(err)))
		return nil, newEngineError(ErrEngineInit, "open", err)
	}

	if e.cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(e.cfg.MaxOpenConns)
	}
	if e.cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(e.cfg.MaxIdleConns)
	}
	if e.cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(e.cfg.ConnMaxLifetime)
	}

	pingCtx := ctx
	if e.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, e.cfg.ConnectTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		log.Error("database ping failed",
			slog.String("target", e.cfg.String()),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", redact.Error(err)))
		return nil, newEngineError(ErrEngineInit, "ping", err)
	}

	log.Info("database connection established",
		slog.String("target", e.cfg.String()),
		slog.Duration("duration", time.Since(start)))

	e.db = db
	return e.db, nil
}

// ScopeFn is the work performed inside a connection scope.
type ScopeFn func(ctx context.Context, conn *Conn) error

// WithConnection takes a dedicated connection from the pool, opens a
// transaction on it and runs fn. The transaction is rolled back on every exit
// path, which is a no-op after Conn.Commit, and the connection returns to the
// pool. A panic inside fn is re-raised after the rollback.
//
// Errors returned by fn come back as an EngineError: ErrEngineOperation for
// SQL, driver, network and context failures, ErrEngineUnknown otherwise.
func (e *Engine) WithConnection(ctx context.Context, fn ScopeFn) error {
	db, err := e.ConnectionSource(ctx)
	if err != nil {
		return err
	}

	if e.cfg.StatementTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.StatementTimeout)
		defer cancel()
	}

	log := logger.FromContextOrDefault(ctx, e.logger)

	sqlConn, err := db.Conn(ctx)
	if err != nil {
		return newEngineError(ErrEngineOperation, "acquire connection", err)
	}
	defer func() {
		if err := sqlConn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			log.Warn("failed to release connection", slog.String("error", redact.Error(err)))
		}
	}()

	tx, err := sqlConn.BeginTx(ctx, nil)
	if err != nil {
		return newEngineError(ErrEngineOperation, "begin transaction", err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Warn("failed to roll back transaction", slog.String("error", redact.Error(err)))
		}
		if p := recover(); p != nil {
			log.Error("rolled back transaction after panic", slog.Any("panic", p))
			// ALLOW-PANIC: propagating caught panic from scope
			panic(p)
		}
	}()

	if err := fn(ctx, &Conn{tx: tx}); err != nil {
		return classify(err)
	}
	return nil
}

// Close closes the pool if it was created.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	if err != nil {
		return newEngineError(ErrEngineOperation, "close", err)
	}
	return nil
}

// Conn is the handle passed to a scope. Errors from its methods are marked as
// SQL-layer failures.
type Conn struct {
	tx *sql.Tx
}

// QueryContext executes a query that returns rows.
func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*Rows, error) {
	rows, err := c.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapSQL("query", err)
	}
	return &Rows{rows: rows}, nil
}

// QueryRowContext executes a query expected to return at most one row.
func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...any) *Row {
	return &Row{row: c.tx.QueryRowContext(ctx, query, args...)}
}

// ExecContext executes a query without returning rows.
func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := c.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, wrapSQL("exec", err)
	}
	return res, nil
}

// Commit commits the scope's transaction.
func (c *Conn) Commit() error {
	return wrapSQL("commit", c.tx.Commit())
}

// Rows wraps sql.Rows.
type Rows struct {
	rows *sql.Rows
}

// Next prepares the next row for Scan.
func (r *Rows) Next() bool { return r.rows.Next() }

// Scan copies the current row into dest.
func (r *Rows) Scan(dest ...any) error { return wrapSQL("scan", r.rows.Scan(dest...)) }

// Err returns the error, if any, encountered during iteration.
func (r *Rows) Err() error { return wrapSQL("iterate", r.rows.Err()) }

// Close releases the result set.
func (r *Rows) Close() error { return wrapSQL("close rows", r.rows.Close()) }

// Row wraps sql.Row. Scan still reports sql.ErrNoRows through errors.Is.
type Row struct {
	row *sql.Row
}

// Scan copies the row into dest.
func (r *Row) Scan(dest ...any) error { return wrapSQL("scan", r.row.Scan(dest...)) }
