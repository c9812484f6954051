package sql

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/syssam/relmap/dialect"
)

// DebugDriver wraps a Driver with debug logging.
type DebugDriver struct {
	*Driver
	log *zap.Logger
	// slow is the duration above which statements are logged at warn level.
	slow time.Duration
}

// DebugOption configures the DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLogger sets the logger. The default logger discards everything.
func DebugWithLogger(log *zap.Logger) DebugOption {
	return func(d *DebugDriver) {
		d.log = log
	}
}

// DebugWithSlowThreshold logs statements slower than t at warn level.
func DebugWithSlowThreshold(t time.Duration) DebugOption {
	return func(d *DebugDriver) {
		d.slow = t
	}
}

// NewDebugDriver wraps a Driver with debug logging.
//
//	drv, _ := sql.Open("postgres", dsn)
//	debug := sql.NewDebugDriver(drv, sql.DebugWithLogger(logger))
//	exec := sql.NewExecutor(debug, dialect.MustLookup(debug.Dialect()))
func NewDebugDriver(drv *Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{Driver: drv, log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query executes a query and logs it.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record("query", query, args, start, err)
	return err
}

// Exec executes a statement and logs it.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record("exec", query, args, start, err)
	return err
}

func (d *DebugDriver) record(kind, query string, args any, start time.Time, err error) {
	duration := time.Since(start)
	fields := []zap.Field{
		zap.String("query", query),
		zap.Any("args", args),
		zap.Duration("duration", duration),
	}
	switch {
	case err != nil:
		d.log.Debug(kind+" failed", append(fields, zap.Error(err))...)
	case d.slow > 0 && duration > d.slow:
		d.log.Warn("slow "+kind, fields...)
	default:
		d.log.Debug(kind, fields...)
	}
}

// Tx starts a transaction with debug logging.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.log.Debug("begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, driver: d}, nil
}

// Acquire pins a connection with debug logging.
func (d *DebugDriver) Acquire(ctx context.Context) (dialect.Conn, error) {
	conn, err := d.Driver.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	d.log.Debug("acquire connection")
	return &DebugConn{Conn: conn, driver: d}, nil
}

// DebugTx wraps a transaction with debug logging.
type DebugTx struct {
	dialect.Tx
	driver *DebugDriver
}

// Query executes a query within the transaction and logs it.
func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record("tx query", query, args, start, err)
	return err
}

// Exec executes a statement within the transaction and logs it.
func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record("tx exec", query, args, start, err)
	return err
}

// Commit commits the transaction and logs it.
func (tx *DebugTx) Commit() error {
	tx.driver.log.Debug("commit transaction")
	return tx.Tx.Commit()
}

// Rollback rolls back the transaction and logs it.
func (tx *DebugTx) Rollback() error {
	tx.driver.log.Debug("rollback transaction")
	return tx.Tx.Rollback()
}

// DebugConn wraps a pinned connection with debug logging.
type DebugConn struct {
	dialect.Conn
	driver *DebugDriver
}

// Query executes a query on the connection and logs it.
func (c *DebugConn) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := c.Conn.Query(ctx, query, args, v)
	c.driver.record("conn query", query, args, start, err)
	return err
}

// Exec executes a statement on the connection and logs it.
func (c *DebugConn) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := c.Conn.Exec(ctx, query, args, v)
	c.driver.record("conn exec", query, args, start, err)
	return err
}

// Begin starts a transaction on the connection and logs it.
func (c *DebugConn) Begin(ctx context.Context) error {
	c.driver.log.Debug("begin transaction")
	return c.Conn.Begin(ctx)
}

// Commit commits the active transaction and logs it.
func (c *DebugConn) Commit(ctx context.Context) error {
	c.driver.log.Debug("commit transaction")
	return c.Conn.Commit(ctx)
}

// Rollback aborts the active transaction and logs it.
func (c *DebugConn) Rollback(ctx context.Context) error {
	c.driver.log.Debug("rollback transaction")
	return c.Conn.Rollback(ctx)
}

// Release returns the connection and logs it.
func (c *DebugConn) Release() error {
	c.driver.log.Debug("release connection")
	return c.Conn.Release()
}

// Ensure interfaces are implemented.
var (
	_ dialect.Driver       = (*DebugDriver)(nil)
	_ dialect.ConnProvider = (*DebugDriver)(nil)
	_ dialect.Tx           = (*DebugTx)(nil)
	_ dialect.Conn         = (*DebugConn)(nil)
)
