package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/syssam/relmap/dialect"
)

// Driver is a dialect.Driver implementation for SQL based databases.
type Driver struct {
	Conn
	dialect string
}

// NewDriver creates a new Driver with the given Conn and dialect.
func NewDriver(dialect string, c Conn) *Driver {
	return &Driver{dialect: dialect, Conn: c}
}

// Open wraps the database/sql.Open method and returns a Driver. The driver
// name is also used as dialect name, so aliases like "pgx" or "sqlite3"
// resolve to their dialect.
func Open(driverName, source string) (*Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(driverName, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(dialect string, db *sql.DB) *Driver {
	return NewDriver(dialect, Conn{db, dialect})
}

// DB returns the underlying *sql.DB instance.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Dialect implements the dialect.Dialect method. Driver names known as
// aliases are reported under their dialect name.
func (d Driver) Dialect() string {
	if c, err := dialect.Lookup(d.dialect); err == nil {
		return c.Name
	}
	return d.dialect
}

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{
		Conn: Conn{tx, d.dialect},
		Tx:   tx,
	}, nil
}

// Acquire pins one connection of the pool. Transactions started on the
// returned connection are scoped to it.
func (d *Driver) Acquire(ctx context.Context) (dialect.Conn, error) {
	conn, err := d.DB().Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: acquire: %w", err)
	}
	return &PinnedConn{Conn: Conn{conn, d.dialect}, conn: conn}, nil
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx implements dialect.Tx interface.
type Tx struct {
	Conn
	driver.Tx
}

// PinnedConn is a single pooled connection that implements dialect.Conn.
type PinnedConn struct {
	Conn
	conn *sql.Conn
	tx   *sql.Tx
}

// Begin starts a transaction on the connection.
func (c *PinnedConn) Begin(ctx context.Context) error {
	if c.tx != nil {
		return errors.New("dialect/sql: transaction already started")
	}
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dialect/sql: begin: %w", err)
	}
	c.tx = tx
	c.ExecQuerier = tx
	return nil
}

// Commit commits the active transaction.
func (c *PinnedConn) Commit(context.Context) error {
	tx, err := c.endTx()
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Rollback aborts the active transaction.
func (c *PinnedConn) Rollback(context.Context) error {
	tx, err := c.endTx()
	if err != nil {
		return err
	}
	return tx.Rollback()
}

func (c *PinnedConn) endTx() (*sql.Tx, error) {
	if c.tx == nil {
		return nil, errors.New("dialect/sql: no transaction started")
	}
	tx := c.tx
	c.tx = nil
	c.ExecQuerier = c.conn
	return tx, nil
}

// InTx reports whether a transaction is active.
func (c *PinnedConn) InTx() bool { return c.tx != nil }

// Release rolls back a dangling transaction and returns the connection to
// the pool.
func (c *PinnedConn) Release() error {
	var err error
	if c.tx != nil {
		err = c.Rollback(context.Background())
	}
	return errors.Join(err, c.conn.Close())
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier given ExecQuerier.
type Conn struct {
	ExecQuerier
	dialect string
}

// Exec implements the dialect.Exec method.
func (c Conn) Exec(ctx context.Context, query string, args, v any) error {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	switch v := v.(type) {
	case nil:
		if _, err := c.ExecContext(ctx, query, argv...); err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
	case *sql.Result:
		res, err := c.ExecContext(ctx, query, argv...)
		if err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
		*v = res
	default:
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	return nil
}

// Query implements the dialect.Query method.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	rows, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*vr = Rows{rows}
	return nil
}

var (
	_ dialect.Driver       = (*Driver)(nil)
	_ dialect.ConnProvider = (*Driver)(nil)
	_ dialect.Conn         = (*PinnedConn)(nil)
)

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// ScanMaps reads every row of every result set into column-keyed maps.
// []byte values are copied into strings.
func ScanMaps(rows ColumnScanner) ([]map[string]any, error) {
	var out []map[string]any
	for {
		columns, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			values := make([]any, len(columns))
			dest := make([]any, len(columns))
			for i := range values {
				dest[i] = &values[i]
			}
			if err := rows.Scan(dest...); err != nil {
				return nil, err
			}
			row := make(map[string]any, len(columns))
			for i, name := range columns {
				if b, ok := values[i].([]byte); ok {
					row[name] = string(b)
					continue
				}
				row[name] = values[i]
			}
			out = append(out, row)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		if !rows.NextResultSet() {
			break
		}
	}
	return out, nil
}
