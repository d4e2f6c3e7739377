// Package database provides the Postgres connection pool and transaction
// helpers used by the repositories.
package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Querier is the subset of sqlx shared by the pool and a transaction.
// Repository methods that may run inside a transaction accept it.
type Querier interface {
	// ExecContext executes a statement without returning rows.
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// GetContext scans a single row into dest.
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// SelectContext scans all rows into the slice pointed to by dest.
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// QueryRowxContext returns a single row for manual scanning.
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

var (
	_ Querier = (*sqlx.DB)(nil)
	_ Querier = (*sqlx.Tx)(nil)
)
