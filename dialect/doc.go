// Package dialect describes the database backends relmap compiles for.
//
// # Capabilities
//
// Every backend is described by a Capability entry holding the facts the
// statement compiler branches on: placeholder style, RETURNING or OUTPUT
// support per operation, UPDATE ... LIMIT, cascade support, spatial syntax
// and NULL rendering. Entries are looked up by dialect name or by a common
// driver alias:
//
//	c := dialect.MustLookup(dialect.Postgres)
//	c.IsReturningSupported(dialect.OpUpdate) // true
//	c.Placeholder(2)                          // "$2"
//
//	c, err := dialect.Lookup("sqlserver")     // dialect.SQLServer
//
// The supported dialects are:
//
//   - Postgres, CockroachDB
//   - MySQL, MariaDB, AuroraMySQL
//   - SQLite
//   - SQLServer
//   - Oracle, Spanner, SAP
//
// Register adds or replaces an entry. Entries are shared and must not be
// mutated after registration; WithLegacySpatial returns a modified copy.
//
// # Coercion
//
// Coerce converts an in-memory value into the form a dialect persists for a
// column type: booleans become integers on MySQL and SQLite, simple arrays
// become comma-joined text, dates are formatted with DateLayout, and string
// columns declared as non-Unicode on SQL Server are sent as mssql.VarChar.
//
// # Driver Interface
//
// Driver, Tx and Conn abstract the connection the statements run on. They
// are implemented by dialect/sql:
//
//	type Conn interface {
//	    ExecQuerier
//	    Begin(ctx context.Context) error
//	    Commit(ctx context.Context) error
//	    Rollback(ctx context.Context) error
//	    InTx() bool
//	    Release() error
//	}
//
// A transaction started on a Conn is scoped to that connection; a
// ConnProvider hands out one Conn per unit of work.
//
// # Sub-packages
//
//   - dialect/sql: database/sql drivers, predicates and the UPDATE compiler and executor
//   - dialect/sql/sqlgraph: driver error classification
package dialect
