package sql

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/schema"
)

// Expr is a raw SQL expression used as an update value. Its result is
// spliced into the statement without binding.
//
//	sql.Update("counters").SetValue("hits", sql.Expr(func() string { return "hits + 1" }))
type Expr func() string

// RawExpr returns an Expr that always yields text.
func RawExpr(text string) Expr {
	return func() string { return text }
}

type setValue struct {
	path  string
	value any
}

// UpdateBuilder is a builder for UPDATE statements. It is owned by one
// call and must not be shared.
type UpdateBuilder struct {
	table        string
	meta         *schema.EntityMetadata
	values       []setValue
	where        *Predicate
	order        []Order
	limit        *int
	returning    []string
	updateEntity bool
	entities     []schema.Entity
	comment      string
	errs         []error
}

// Update returns a builder for a table without mapped metadata. Value keys
// are column names.
func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table, updateEntity: true}
}

// UpdateOf returns a builder for the table of an entity. Value keys are
// property paths.
func UpdateOf(meta *schema.EntityMetadata) *UpdateBuilder {
	return &UpdateBuilder{table: meta.TablePath(), meta: meta, updateEntity: true}
}

// Metadata returns the target metadata, or nil.
func (u *UpdateBuilder) Metadata() *schema.EntityMetadata { return u.meta }

// Set appends the values of m in key order.
func (u *UpdateBuilder) Set(m map[string]any) *UpdateBuilder {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		u.values = append(u.values, setValue{path: k, value: m[k]})
	}
	return u
}

// SetValue appends one value. Values are emitted in the order they are set.
func (u *UpdateBuilder) SetValue(path string, v any) *UpdateBuilder {
	u.values = append(u.values, setValue{path: path, value: v})
	return u
}

// Values returns the value set as a map.
func (u *UpdateBuilder) Values() map[string]any {
	m := make(map[string]any, len(u.values))
	for _, v := range u.values {
		m[v.path] = v.value
	}
	return m
}

// Where replaces the condition of the statement.
func (u *UpdateBuilder) Where(p *Predicate) *UpdateBuilder {
	u.where = p
	return u
}

// AndWhere adds a condition joined with AND.
func (u *UpdateBuilder) AndWhere(p *Predicate) *UpdateBuilder {
	u.where = And(u.where, p)
	return u
}

// OrWhere adds a condition joined with OR.
func (u *UpdateBuilder) OrWhere(p *Predicate) *UpdateBuilder {
	u.where = Or(u.where, p)
	return u
}

// WhereInIDs restricts the statement to the given primary key values. Each
// id is a single value for single-column keys, or a property-keyed map.
func (u *UpdateBuilder) WhereInIDs(ids ...any) *UpdateBuilder {
	p, err := u.idPredicate(ids)
	if err != nil {
		u.errs = append(u.errs, err)
		return u
	}
	return u.Where(p)
}

// WhereEntity restricts the statement to the rows of the given entities and
// marks them for refresh after execution.
func (u *UpdateBuilder) WhereEntity(entities ...schema.Entity) *UpdateBuilder {
	if u.meta == nil {
		u.errs = append(u.errs, relmap.NewValidationError(u.table, fmt.Errorf("where entity: %w", relmap.ErrNoMetadata)))
		return u
	}
	ids := make([]any, 0, len(entities))
	for _, e := range entities {
		m, ok := u.meta.EntityIDMap(e)
		if !ok {
			u.errs = append(u.errs, relmap.NewValidationError(u.meta.Name, relmap.ErrMissingIDs))
			return u
		}
		ids = append(ids, m)
	}
	p, err := u.idPredicate(ids)
	if err != nil {
		u.errs = append(u.errs, err)
		return u
	}
	u.entities = entities
	return u.Where(p)
}

func (u *UpdateBuilder) idPredicate(ids []any) (*Predicate, error) {
	if u.meta == nil {
		return nil, relmap.NewValidationError(u.table, fmt.Errorf("where ids: %w", relmap.ErrNoMetadata))
	}
	pks := u.meta.PrimaryColumns()
	if len(pks) == 0 {
		return nil, relmap.NewValidationError(u.meta.Name, relmap.ErrMissingIDs)
	}
	if len(pks) == 1 {
		vs := make([]any, len(ids))
		for i, id := range ids {
			if m, ok := id.(map[string]any); ok {
				id = m[pks[0].Path()]
			}
			vs[i] = id
		}
		if len(vs) == 1 {
			return EQ(pks[0].Path(), vs[0]), nil
		}
		return In(pks[0].Path(), vs...), nil
	}
	preds := make([]*Predicate, 0, len(ids))
	for _, id := range ids {
		m, ok := id.(map[string]any)
		if !ok {
			return nil, relmap.NewValidationError(u.meta.Name, fmt.Errorf("id %v does not cover the composite primary key", id))
		}
		conds := make([]*Predicate, len(pks))
		for i, c := range pks {
			conds[i] = EQ(c.Path(), m[c.Path()])
		}
		preds = append(preds, And(conds...))
	}
	return Or(preds...), nil
}

// OrderBy replaces the ordering of the statement.
func (u *UpdateBuilder) OrderBy(orders ...Order) *UpdateBuilder {
	u.order = slices.Clone(orders)
	return u
}

// AddOrderBy appends ordering terms.
func (u *UpdateBuilder) AddOrderBy(orders ...Order) *UpdateBuilder {
	u.order = append(u.order, orders...)
	return u
}

// Limit caps the number of updated rows. A non-positive n clears the cap.
func (u *UpdateBuilder) Limit(n int) *UpdateBuilder {
	if n <= 0 {
		u.limit = nil
		return u
	}
	u.limit = &n
	return u
}

// Returning requests the given property paths (or column names) back from
// the statement.
func (u *UpdateBuilder) Returning(paths ...string) *UpdateBuilder {
	u.returning = append(u.returning, paths...)
	return u
}

// Output is an alias of Returning.
func (u *UpdateBuilder) Output(paths ...string) *UpdateBuilder {
	return u.Returning(paths...)
}

// UpdateEntity toggles the refresh of matched entities after execution.
// It is enabled by default.
func (u *UpdateBuilder) UpdateEntity(enabled bool) *UpdateBuilder {
	u.updateEntity = enabled
	return u
}

// Comment prefixes the statement with a SQL comment.
func (u *UpdateBuilder) Comment(text string) *UpdateBuilder {
	u.comment = text
	return u
}

// Statement is a compiled batch ready for execution.
type Statement struct {
	Query string
	Args  []any
	// Returning lists the physical names of the returned columns.
	Returning []string
	// Columns holds the metadata of the returned columns, when known.
	Columns []*schema.ColumnMetadata
}

// Query compiles the statement for the dialect.
func (u *UpdateBuilder) Query(c *dialect.Capability) (string, []any, error) {
	st, err := u.Compile(c)
	if err != nil {
		return "", nil, err
	}
	return st.Query, st.Args, nil
}

// Compile compiles the statement for the dialect. Every error is returned
// before anything is sent to the database.
func (u *UpdateBuilder) Compile(c *dialect.Capability) (*Statement, error) {
	return u.compile(c, nil)
}

func (u *UpdateBuilder) compile(c *dialect.Capability, extra []*schema.ColumnMetadata) (*Statement, error) {
	if err := errors.Join(u.errs...); err != nil {
		return nil, err
	}
	if u.limit != nil && !c.SupportsLimitOnUpdate() {
		return nil, relmap.NewUnsupportedFeatureError(c.Name, "LIMIT", "UPDATE")
	}
	if len(u.returning) > 0 && !c.IsReturningSupported(dialect.OpUpdate) {
		return nil, relmap.NewUnsupportedFeatureError(c.Name, "RETURNING", "UPDATE")
	}
	returning, columns, err := u.returningColumns(extra)
	if err != nil {
		return nil, err
	}
	sets, err := u.assignments(c)
	if err != nil {
		return nil, err
	}

	b := NewBuilder(c)
	if u.meta != nil {
		b.column = func(path string) string {
			if col := u.meta.Column(path); col != nil {
				return col.DatabaseName
			}
			return path
		}
	}
	if u.comment != "" {
		b.WriteString("/* ").WriteString(strings.ReplaceAll(u.comment, "*/", "")).WriteString(" */ ")
	}
	b.WriteString("UPDATE ").Ident(u.table).WriteString(" SET ").Join(", ", sets...)

	var declare, selectOutput string
	style := c.ReturningStyle(dialect.OpUpdate)
	if len(returning) > 0 && style == dialect.ReturningOutput {
		b.WriteString(" OUTPUT ").Join(", ", idents("INSERTED.", returning)...)
		if len(columns) > 0 {
			out := make([]dialect.OutputColumn, len(columns))
			for i, col := range columns {
				out[i] = col.OutputColumn()
			}
			declare = c.OutputTableDeclaration(dialect.OutputVariable, out)
			selectOutput = "SELECT * FROM " + dialect.OutputVariable
			b.WriteString(" INTO " + dialect.OutputVariable)
		}
	}
	if u.where != nil {
		b.WriteString(" WHERE ")
		u.where.render(b)
	}
	if len(returning) > 0 && style == dialect.ReturningTrailing {
		b.WriteString(" RETURNING ").Join(", ", idents("", returning)...)
	}
	if len(u.order) > 0 {
		terms := make([]func(*Builder), len(u.order))
		for i, o := range u.order {
			terms[i] = o.render
		}
		b.WriteString(" ORDER BY ").Join(", ", terms...)
	}
	if u.limit != nil {
		b.WriteString(" LIMIT " + strconv.Itoa(*u.limit))
	}

	query, args := b.Query()
	if declare != "" {
		query = strings.Join([]string{declare, query, selectOutput}, dialect.StatementSeparator)
	}
	return &Statement{
		Query:     query,
		Args:      args,
		Returning: returning,
		Columns:   columns,
	}, nil
}

// assignments resolves the SET clause into Join items. Values are coerced
// here so that every error is known before rendering; placeholders are
// bound when the items run.
func (u *UpdateBuilder) assignments(c *dialect.Capability) ([]func(*Builder), error) {
	var sets []func(*Builder)
	assign := func(name string, value func(*Builder)) {
		sets = append(sets, func(b *Builder) {
			b.Ident(name).WriteString(" = ")
			value(b)
		})
	}
	if u.meta == nil {
		for _, sv := range u.values {
			switch v := sv.value.(type) {
			case Expr:
				assign(sv.path, raw(v()))
			case func() string:
				assign(sv.path, raw(v()))
			default:
				assign(sv.path, bound(c, v, nil))
			}
		}
		if len(sets) == 0 {
			return nil, relmap.NewValidationError(u.table, relmap.ErrNoValues)
		}
		return sets, nil
	}

	updated := make(map[*schema.ColumnMetadata]bool)
	for _, sv := range u.values {
		cols := u.meta.FindColumnsWithPropertyPath(sv.path)
		if len(cols) == 0 {
			return nil, relmap.NewEntityColumnNotFoundError(u.meta.Name, sv.path)
		}
		for _, col := range cols {
			if col.NoUpdate || updated[col] {
				continue
			}
			updated[col] = true
			value, err := u.value(c, col, sv)
			if err != nil {
				return nil, err
			}
			assign(col.DatabaseName, value)
		}
	}
	if len(sets) > 0 || len(u.values) == 0 {
		if vc := u.meta.VersionColumn(); vc != nil && !updated[vc] {
			assign(vc.DatabaseName, func(b *Builder) {
				b.Ident(vc.DatabaseName).WriteString(" + 1")
			})
		}
		if dc := u.meta.UpdateDateColumn(); dc != nil && !updated[dc] {
			assign(dc.DatabaseName, raw("CURRENT_TIMESTAMP"))
		}
	}
	if len(sets) == 0 {
		return nil, relmap.NewValidationError(u.meta.Name, relmap.ErrNoValues)
	}
	return sets, nil
}

// value resolves the value of one column.
func (u *UpdateBuilder) value(c *dialect.Capability, col *schema.ColumnMetadata, sv setValue) (func(*Builder), error) {
	v := sv.value
	switch e := v.(type) {
	case Expr:
		return raw(e()), nil
	case func() string:
		return raw(e()), nil
	}
	extracted := false
	if ent, ok := v.(schema.Entity); ok {
		switch {
		case col.ReferencedColumn != nil:
			v, _ = ent.Value(col.ReferencedColumn.Property)
			extracted = true
		case strings.HasPrefix(col.Path(), sv.path+"."):
			v, _ = ent.Value(strings.TrimPrefix(col.Path(), sv.path+"."))
		}
	}
	if !extracted {
		var err error
		if v, err = c.Coerce(v, col.Type, col.DBType); err != nil {
			return nil, fmt.Errorf("relmap: column %s: %w", col.DatabaseName, err)
		}
	}
	return bound(c, v, col), nil
}

func raw(text string) func(*Builder) {
	return func(b *Builder) { b.WriteString(text) }
}

// bound binds v, or writes NULL on dialects that take it literally.
// Spatial columns wrap the placeholder.
func bound(c *dialect.Capability, v any, col *schema.ColumnMetadata) func(*Builder) {
	if v == nil && c.NullAsLiteral() {
		return raw("NULL")
	}
	return func(b *Builder) {
		p := b.placeholder(v)
		if col != nil && c.IsSpatialType(col.DBType) {
			p = c.SpatialExpr(p, col.DBType, col.SRID)
		}
		b.WriteString(p)
	}
}

// returningColumns resolves the requested returning paths and merges the
// extra columns after them without duplicates.
func (u *UpdateBuilder) returningColumns(extra []*schema.ColumnMetadata) ([]string, []*schema.ColumnMetadata, error) {
	if u.meta == nil {
		return slices.Clone(u.returning), nil, nil
	}
	var cols []*schema.ColumnMetadata
	for _, path := range u.returning {
		found := u.meta.FindColumnsWithPropertyPath(path)
		if len(found) == 0 {
			return nil, nil, relmap.NewEntityColumnNotFoundError(u.meta.Name, path)
		}
		for _, col := range found {
			if !slices.Contains(cols, col) {
				cols = append(cols, col)
			}
		}
	}
	for _, col := range extra {
		if !slices.Contains(cols, col) {
			cols = append(cols, col)
		}
	}
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.DatabaseName
	}
	return names, cols, nil
}

// refreshColumns returns the columns needed to re-populate entities after
// the update: primary, version, update-date and generated columns.
func (u *UpdateBuilder) refreshColumns() []*schema.ColumnMetadata {
	var cols []*schema.ColumnMetadata
	for _, col := range u.meta.Columns {
		if col.Primary || col.IsVersion() || col.IsUpdateDate() || col.IsGenerated() {
			cols = append(cols, col)
		}
	}
	return cols
}
