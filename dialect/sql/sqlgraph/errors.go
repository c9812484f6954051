package sqlgraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ConstraintKind classifies a constraint violation.
type ConstraintKind uint8

// Constraint kinds.
const (
	NoConstraint ConstraintKind = iota
	UniqueConstraint
	ForeignKeyConstraint
	CheckConstraint
)

// String implements fmt.Stringer.
func (k ConstraintKind) String() string {
	switch k {
	case UniqueConstraint:
		return "unique"
	case ForeignKeyConstraint:
		return "foreign-key"
	case CheckConstraint:
		return "check"
	default:
		return "none"
	}
}

// ConstraintError wraps a driver error that violated a constraint.
type ConstraintError struct {
	Kind ConstraintKind
	err  error
}

// Error implements the error interface.
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("sqlgraph: %s constraint violation: %v", e.Kind, e.err)
}

// Unwrap returns the driver error.
func (e *ConstraintError) Unwrap() error { return e.err }

// WrapConstraintError returns err wrapped in a ConstraintError when it
// resulted from a constraint violation, and err otherwise.
func WrapConstraintError(err error) error {
	if kind := Classify(err); kind != NoConstraint {
		return &ConstraintError{Kind: kind, err: err}
	}
	return err
}

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return Classify(err) != NoConstraint
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	return Classify(err) == UniqueConstraint
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return Classify(err) == ForeignKeyConstraint
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
// e.g. a value does not satisfy a check condition.
func IsCheckConstraintError(err error) bool {
	return Classify(err) == CheckConstraint
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// SQL Server error numbers for constraint violations.
const (
	mssqlUniqueConstraint = 2627
	mssqlUniqueIndex      = 2601
	mssqlConstraintFailed = 547 // foreign key and check constraints
)

// Classify returns the kind of constraint err violated.
func Classify(err error) ConstraintKind {
	if err == nil {
		return NoConstraint
	}
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if e, ok := asError[*pgconn.PgError](err); ok {
		return pgKind(e.Code)
	}
	if e, ok := asError[*pq.Error](err); ok {
		return pgKind(string(e.Code))
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return mysqlKind(e.Number)
	}
	if e, ok := asError[mssql.Error](err); ok {
		return mssqlKind(e.Number, e.Message)
	}
	if e, ok := asError[*mssql.Error](err); ok {
		return mssqlKind(e.Number, e.Message)
	}
	if e, ok := asError[*sqlite.Error](err); ok {
		switch e.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return UniqueConstraint
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ForeignKeyConstraint
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return CheckConstraint
		}
	}
	// Check for SQLSTATE codes of drivers not listed above.
	if e, ok := asError[sqlStateError](err); ok {
		if kind := pgKind(e.SQLState()); kind != NoConstraint {
			return kind
		}
	}
	if e, ok := asError[errorNumberer](err); ok {
		if kind := mysqlKind(e.Number()); kind != NoConstraint {
			return kind
		}
	}

	// Fallback to string matching for drivers that don't implement interfaces
	msg := err.Error()
	switch {
	case containsAny(msg,
		"Error 1062",                 // MySQL (string fallback)
		"violates unique constraint", // Postgres (string fallback)
		"UNIQUE constraint failed",   // SQLite
	):
		return UniqueConstraint
	case containsAny(msg,
		"Error 1451",                      // MySQL (Cannot delete or update a parent row)
		"Error 1452",                      // MySQL (Cannot add or update a child row)
		"violates foreign key constraint", // Postgres
		"FOREIGN KEY constraint failed",   // SQLite
	):
		return ForeignKeyConstraint
	case containsAny(msg,
		"Error 3819",                // MySQL
		"violates check constraint", // Postgres
		"CHECK constraint failed",   // SQLite
	):
		return CheckConstraint
	}
	return NoConstraint
}

func pgKind(code string) ConstraintKind {
	switch code {
	case pgUniqueViolation:
		return UniqueConstraint
	case pgForeignKeyViolation:
		return ForeignKeyConstraint
	case pgCheckViolation:
		return CheckConstraint
	}
	return NoConstraint
}

func mysqlKind(n uint16) ConstraintKind {
	switch n {
	case mysqlDuplicateEntry:
		return UniqueConstraint
	case mysqlForeignKeyParent, mysqlForeignKeyChild:
		return ForeignKeyConstraint
	case mysqlCheckConstraintViolate:
		return CheckConstraint
	}
	return NoConstraint
}

func mssqlKind(n int32, msg string) ConstraintKind {
	switch n {
	case mssqlUniqueConstraint, mssqlUniqueIndex:
		return UniqueConstraint
	case mssqlConstraintFailed:
		if strings.Contains(msg, "CHECK constraint") {
			return CheckConstraint
		}
		return ForeignKeyConstraint
	}
	return NoConstraint
}

// errorNumberer is an interface for database errors that provide numeric error codes.
type errorNumberer interface {
	Number() uint16
}

// sqlStateError is an interface for errors that provide SQLSTATE codes.
type sqlStateError interface {
	SQLState() string
}

// asError attempts to extract an error of type T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
