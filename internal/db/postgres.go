package db

import (
	"context"
	"database/sql"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"saas-auth-core/internal/platform/apperror"
)

// UniqueViolation is the Postgres error code for unique-constraint failures.
const UniqueViolation = "23505"

// Open opens a Postgres connection using the given DSN. Caller must call Close when done.
func Open(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// WrapError classifies a database error for the error taxonomy. Timeouts and
// connectivity failures become transient (callers may retry with backoff);
// everything else is internal. Returns nil for nil and sql.ErrNoRows
// untouched so repositories can keep their nil-on-missing contract.
func WrapError(err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperror.Transient("database call timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperror.Transient("database network timeout", err)
	}
	if pgconn.Timeout(err) {
		return apperror.Transient("database query timeout", err)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return apperror.Transient("database connection closed", err)
	}
	return apperror.Internal("database error", err)
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally on the named constraint (empty matches any).
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
