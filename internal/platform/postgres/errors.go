package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Engine error kinds. Every error returned by Engine matches ErrEngine.
var (
	// ErrEngine is the base of all engine errors.
	ErrEngine = errors.New("database engine error")

	// ErrEngineInit is returned when the connection pool cannot be created
	// or the database does not answer the initial ping.
	ErrEngineInit = fmt.Errorf("%w: initialization failed", ErrEngine)

	// ErrEngineOperation is returned for failures raised by the SQL layer or
	// the driver while a scope is open.
	ErrEngineOperation = fmt.Errorf("%w: operation failed", ErrEngine)

	// ErrEngineUnknown is returned for any other failure escaping a scope.
	ErrEngineUnknown = fmt.Errorf("%w: unexpected failure", ErrEngine)
)

// EngineError carries the kind of an engine failure, the step that failed and
// the underlying cause.
type EngineError struct {
	Kind error
	Op   string
	Err  error
}

// Error implements the error interface for EngineError.
func (e *EngineError) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *EngineError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newEngineError(kind error, op string, err error) *EngineError {
	return &EngineError{Kind: kind, Op: op, Err: err}
}

// sqlError marks an error surfaced by a Conn, Rows or Row method.
type sqlError struct {
	op  string
	err error
}

func (e *sqlError) Error() string { return e.op + ": " + e.err.Error() }
func (e *sqlError) Unwrap() error { return e.err }

func wrapSQL(op string, err error) error {
	if err == nil {
		return nil
	}
	return &sqlError{op: op, err: err}
}

// classify converts an error escaping a scope into an EngineError.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrEngine) {
		return err
	}
	if isOperational(err) {
		return newEngineError(ErrEngineOperation, "execute", err)
	}
	return newEngineError(ErrEngineUnknown, "execute", err)
}

// isOperational reports whether err was raised by the SQL layer, the driver
// or the network rather than by the caller's own logic.
func isOperational(err error) bool {
	var (
		sqlErr *sqlError
		pgErr  *pgconn.PgError
		pqErr  *pq.Error
		netErr net.Error
	)
	switch {
	case errors.As(err, &sqlErr), errors.As(err, &pgErr), errors.As(err, &pqErr), errors.As(err, &netErr):
		return true
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, sql.ErrTxDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return true
	}
	return false
}

// SQLState returns the SQLSTATE code carried by a PostgreSQL error from
// either driver, or "" when err carries none.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
