package sql

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/dialect/sql/sqlgraph"
	"github.com/syssam/relmap/schema"
)

// UpdateResult is the outcome of an executed update.
type UpdateResult struct {
	// Affected is the number of touched rows, when the driver reports it.
	Affected int64
	// Raw holds the returned rows keyed by column name.
	Raw []map[string]any
	// Returned holds the returned rows keyed by property path. It is nil
	// for statements without metadata.
	Returned []map[string]any
}

// Executor runs update statements on connections of a provider.
type Executor struct {
	provider    dialect.ConnProvider
	dialect     *dialect.Capability
	log         *zap.Logger
	broadcaster Broadcaster
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger of the executor.
func WithLogger(log *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		e.log = log
	}
}

// WithBroadcaster sets the lifecycle event broadcaster.
func WithBroadcaster(b Broadcaster) ExecutorOption {
	return func(e *Executor) {
		e.broadcaster = b
	}
}

// NewExecutor returns an executor that borrows connections from provider and
// compiles statements for the dialect c.
func NewExecutor(provider dialect.ConnProvider, c *dialect.Capability, opts ...ExecutorOption) *Executor {
	e := &Executor{
		provider: provider,
		dialect:  c,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type execConfig struct {
	conn        dialect.Conn
	transaction bool
	listeners   bool
	refresh     []schema.Entity
}

// ExecOption configures one execution.
type ExecOption func(*execConfig)

// WithConn runs the statement on a caller-supplied connection. The
// connection is never released by the executor.
func WithConn(conn dialect.Conn) ExecOption {
	return func(c *execConfig) {
		c.conn = conn
	}
}

// WithTransaction controls whether the executor wraps the statement in a
// transaction when none is active. It defaults to true.
func WithTransaction(enabled bool) ExecOption {
	return func(c *execConfig) {
		c.transaction = enabled
	}
}

// WithListeners controls whether lifecycle events are broadcast. It
// defaults to true.
func WithListeners(enabled bool) ExecOption {
	return func(c *execConfig) {
		c.listeners = enabled
	}
}

// WithRefresh adds entities to refresh from the returned rows.
func WithRefresh(entities ...schema.Entity) ExecOption {
	return func(c *execConfig) {
		c.refresh = append(c.refresh, entities...)
	}
}

// Exec compiles and runs the update. Compile errors are returned before a
// connection is borrowed. On failure, a transaction started by the executor
// is rolled back and the original error is returned.
func (e *Executor) Exec(ctx context.Context, u *UpdateBuilder, opts ...ExecOption) (res *UpdateResult, err error) {
	cfg := execConfig{transaction: true, listeners: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	p, err := e.prepare(u, cfg)
	if err != nil {
		return nil, err
	}
	conn := cfg.conn
	if conn == nil {
		if conn, err = e.provider.Acquire(ctx); err != nil {
			return nil, err
		}
		defer func() {
			if rerr := conn.Release(); rerr != nil {
				e.log.Warn("release connection", zap.Error(rerr))
			}
		}()
	}
	var owned bool
	if cfg.transaction && !conn.InTx() {
		if err := conn.Begin(ctx); err != nil {
			return nil, err
		}
		owned = true
	}
	defer func() {
		if err != nil && owned {
			if rerr := conn.Rollback(ctx); rerr != nil {
				e.log.Warn("rollback update", zap.Error(rerr), zap.NamedError("cause", err))
			}
		}
	}()

	res, err = e.exec(ctx, conn, u, cfg, p)
	if err != nil {
		return nil, err
	}
	if owned {
		if err = conn.Commit(ctx); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// prepared is a compiled update with the entities it refreshes.
type prepared struct {
	st       *Statement
	entities []schema.Entity
	refresh  bool
}

func (e *Executor) prepare(u *UpdateBuilder, cfg execConfig) (*prepared, error) {
	p := &prepared{entities: append(append([]schema.Entity(nil), u.entities...), cfg.refresh...)}
	var extra []*schema.ColumnMetadata
	if u.updateEntity && u.meta != nil && len(p.entities) > 0 && e.dialect.IsReturningSupported(dialect.OpUpdate) {
		extra = u.refreshColumns()
	}
	st, err := u.compile(e.dialect, extra)
	if err != nil {
		return nil, err
	}
	p.st, p.refresh = st, len(extra) > 0
	return p, nil
}

func (e *Executor) exec(ctx context.Context, conn dialect.Conn, u *UpdateBuilder, cfg execConfig, p *prepared) (*UpdateResult, error) {
	meta := u.Metadata()
	broadcast := cfg.listeners && e.broadcaster != nil && meta != nil
	if broadcast {
		e.broadcaster.Broadcast(ctx, BeforeUpdate, meta, u.Values())
	}
	st := p.st
	e.log.Debug("update", zap.String("query", st.Query), zap.Any("args", st.Args))

	res := &UpdateResult{}
	if len(st.Returning) > 0 {
		var rows Rows
		if err := conn.Query(ctx, st.Query, st.Args, &rows); err != nil {
			e.logDriverError(err, st)
			return nil, err
		}
		raw, err := scanAndClose(rows)
		if err != nil {
			return nil, err
		}
		res.Raw = raw
		res.Affected = int64(len(raw))
	} else {
		var r sql.Result
		if err := conn.Exec(ctx, st.Query, st.Args, &r); err != nil {
			e.logDriverError(err, st)
			return nil, err
		}
		if n, err := r.RowsAffected(); err == nil {
			res.Affected = n
		}
	}

	if meta != nil {
		res.Returned = make([]map[string]any, len(res.Raw))
		for i, row := range res.Raw {
			res.Returned[i] = propertyRow(meta, row)
		}
		if p.refresh {
			if err := merge(meta, p.entities, res.Returned); err != nil {
				return nil, err
			}
		}
	}
	if broadcast {
		e.broadcaster.Broadcast(ctx, AfterUpdate, meta, u.Values())
	}
	return res, nil
}

func (e *Executor) logDriverError(err error, st *Statement) {
	kind := sqlgraph.Classify(err)
	e.log.Error("update failed",
		zap.Error(err),
		zap.Stringer("constraint", kind),
		zap.String("query", st.Query),
	)
}

func scanAndClose(rows Rows) (out []map[string]any, err error) {
	defer func() {
		if cerr := rows.Close(); err == nil {
			err = cerr
		}
	}()
	return ScanMaps(rows)
}

// propertyRow re-keys a returned row by property path.
func propertyRow(meta *schema.EntityMetadata, row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for name, v := range row {
		if col := meta.ColumnByName(name); col != nil {
			out[col.Path()] = v
			continue
		}
		out[name] = v
	}
	return out
}

// merge writes the returned values onto the entities. Rows are matched by
// primary key; position is used only for entities whose key is unknown.
// An entity whose key is known but absent from the rows is left untouched.
func merge(meta *schema.EntityMetadata, entities []schema.Entity, rows []map[string]any) error {
	pks := meta.PrimaryColumns()
	byKey := make(map[string]map[string]any, len(rows))
	for _, row := range rows {
		if k, ok := rowKey(pks, row); ok {
			byKey[k] = row
		}
	}
	for i, ent := range entities {
		var row map[string]any
		if k, ok := entityKey(meta, pks, ent); ok {
			row = byKey[k]
		} else if i < len(rows) {
			row = rows[i]
		}
		for path, v := range row {
			if err := ent.SetValue(path, v); err != nil {
				return fmt.Errorf("relmap: refresh %s.%s: %w", meta.Name, path, err)
			}
		}
	}
	return nil
}

func entityKey(meta *schema.EntityMetadata, pks []*schema.ColumnMetadata, ent schema.Entity) (string, bool) {
	ids, ok := meta.EntityIDMap(ent)
	if !ok {
		return "", false
	}
	return rowKey(pks, ids)
}

func rowKey(pks []*schema.ColumnMetadata, values map[string]any) (string, bool) {
	if len(pks) == 0 {
		return "", false
	}
	var key string
	for _, c := range pks {
		v, ok := values[c.Path()]
		if !ok {
			return "", false
		}
		key += fmt.Sprint(v) + "\x00"
	}
	return key, true
}
