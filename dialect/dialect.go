package dialect

import (
	"context"
	"strings"
)

// Dialect names for the supported connection types.
const (
	Postgres    = "postgres"
	CockroachDB = "cockroachdb"
	MySQL       = "mysql"
	MariaDB     = "mariadb"
	AuroraMySQL = "aurora-mysql"
	SQLite      = "sqlite"
	SQLServer   = "mssql"
	Oracle      = "oracle"
	Spanner     = "spanner"
	SAP         = "sap"
)

// IsMySQLFamily reports whether the dialect speaks the MySQL grammar,
// including the managed Aurora variant.
func IsMySQLFamily(name string) bool {
	switch strings.ToLower(name) {
	case MySQL, MariaDB, AuroraMySQL:
		return true
	}
	return false
}

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for a
// database connection pool.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// Conn is a single connection borrowed from a pool. A transaction started
// on a Conn is scoped to that connection only.
type Conn interface {
	ExecQuerier
	// Begin starts a transaction on this connection.
	Begin(ctx context.Context) error
	// Commit commits the active transaction.
	Commit(ctx context.Context) error
	// Rollback aborts the active transaction.
	Rollback(ctx context.Context) error
	// InTx reports whether a transaction is active on this connection.
	InTx() bool
	// Release returns the connection to its pool.
	Release() error
}

// ConnProvider hands out connections for one unit of work.
type ConnProvider interface {
	Acquire(ctx context.Context) (Conn, error)
}
