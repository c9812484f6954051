package schema

import (
	"slices"

	"go.uber.org/zap"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/schema/field"
)

// JunctionBuilder synthesizes the link table metadata of many-to-many
// relations for one target dialect.
type JunctionBuilder struct {
	naming  NamingStrategy
	dialect *dialect.Capability
	log     *zap.Logger
}

// JunctionOption configures a JunctionBuilder.
type JunctionOption func(*JunctionBuilder)

// WithNamingStrategy sets the naming strategy. Defaults to DefaultNamingStrategy.
func WithNamingStrategy(ns NamingStrategy) JunctionOption {
	return func(b *JunctionBuilder) {
		b.naming = ns
	}
}

// WithLogger sets the logger of the builder.
func WithLogger(l *zap.Logger) JunctionOption {
	return func(b *JunctionBuilder) {
		b.log = l
	}
}

// NewJunctionBuilder returns a builder for the given dialect.
func NewJunctionBuilder(c *dialect.Capability, opts ...JunctionOption) *JunctionBuilder {
	b := &JunctionBuilder{
		naming:  DefaultNamingStrategy{},
		dialect: c,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the junction entity of rel. The returned metadata is
// complete and must not be modified afterwards.
func (b *JunctionBuilder) Build(rel *RelationMetadata, spec JoinTableSpec) (*EntityMetadata, error) {
	if rel.Entity == nil || rel.InverseEntity == nil {
		return nil, relmap.NewConfigurationError("", "relation %q has no entity on both sides", rel.Path())
	}
	owner, inverse := rel.Entity, rel.InverseEntity
	referenced, err := referencedColumns(owner, spec.JoinColumns)
	if err != nil {
		return nil, err
	}
	inverseReferenced, err := referencedColumns(inverse, spec.InverseJoinColumns)
	if err != nil {
		return nil, err
	}

	var inverseProperty string
	if rel.InverseRelation != nil {
		inverseProperty = rel.InverseRelation.PropertyName
	}
	table := spec.Name
	if table == "" {
		table = b.naming.JoinTableName(owner.Table(), inverse.Table(), rel.Path(), inverseProperty)
	}
	junction := &EntityMetadata{
		Name:      table,
		TableName: table,
		Database:  firstNonEmpty(spec.Database, owner.Database),
		Schema:    firstNonEmpty(spec.Schema, owner.Schema),
		Kind:      KindJunction,
	}
	relRef := rel.Ref()
	junction.OwnerRelation = &relRef

	for _, ref := range referenced {
		name := overrideName(spec.JoinColumns, ref)
		if name == "" {
			name = b.naming.JoinTableColumnName(owner.Table(), ref.PropertyName, ref.DatabaseName)
		}
		junction.OwnerColumns = append(junction.OwnerColumns, b.junctionColumn(table, name, ref))
	}
	for _, ref := range inverseReferenced {
		name := overrideName(spec.InverseJoinColumns, ref)
		if name == "" {
			name = b.naming.JoinTableInverseColumnName(inverse.Table(), ref.PropertyName, ref.DatabaseName)
		}
		junction.InverseColumns = append(junction.InverseColumns, b.junctionColumn(table, name, ref))
	}

	for _, oc := range junction.OwnerColumns {
		for _, ic := range junction.InverseColumns {
			if oc.DatabaseName != ic.DatabaseName {
				continue
			}
			b.log.Debug("junction column name collision",
				zap.String("table", table),
				zap.String("column", oc.DatabaseName),
			)
			oc.PropertyName = b.naming.JoinTableColumnDuplicationPrefix(oc.PropertyName, 1)
			oc.PropertyPath, oc.DatabaseName = oc.PropertyName, oc.PropertyName
			ic.PropertyName = b.naming.JoinTableColumnDuplicationPrefix(ic.PropertyName, 2)
			ic.PropertyPath, ic.DatabaseName = ic.PropertyName, ic.PropertyName
		}
	}
	if dup := duplicateNames(junction.OwnerColumns, junction.InverseColumns); len(dup) > 0 {
		b.log.Warn("junction side holds duplicate column names",
			zap.String("table", table),
			zap.Strings("columns", dup),
		)
	}

	junction.Columns = slices.Concat(junction.OwnerColumns, junction.InverseColumns)
	for _, c := range junction.Columns {
		ref := relRef
		c.Relation = &ref
	}

	ownerNames, inverseNames := columnNames(junction.OwnerColumns), columnNames(junction.InverseColumns)
	if rel.CreateForeignKeyConstraints {
		onDelete, onUpdate := rel.OnDelete, rel.OnUpdate
		var invDelete, invUpdate ReferentialAction
		if rel.InverseRelation != nil {
			invDelete, invUpdate = rel.InverseRelation.OnDelete, rel.InverseRelation.OnUpdate
		}
		ownerDelete, ownerUpdate := b.actions(onDelete, onUpdate)
		inverseDelete, inverseUpdate := b.actions(invDelete, invUpdate)
		junction.ForeignKeys = []*ForeignKeyMetadata{
			{
				EntityName:           table,
				ReferencedEntityName: owner.Name,
				ReferencedTable:      owner.TablePath(),
				Columns:              ownerNames,
				ReferencedColumns:    columnNames(referenced),
				OnDelete:             ownerDelete,
				OnUpdate:             ownerUpdate,
			},
			{
				EntityName:           table,
				ReferencedEntityName: inverse.Name,
				ReferencedTable:      inverse.TablePath(),
				Columns:              inverseNames,
				ReferencedColumns:    columnNames(inverseReferenced),
				OnDelete:             inverseDelete,
				OnUpdate:             inverseUpdate,
			},
		}
	}
	junction.Indices = []*IndexMetadata{
		{EntityName: table, Columns: ownerNames, Synchronize: true},
		{EntityName: table, Columns: inverseNames, Synchronize: true},
	}
	b.log.Debug("junction built",
		zap.String("relation", relRef.String()),
		zap.String("table", junction.TablePath()),
		zap.Int("columns", len(junction.Columns)),
		zap.Int("foreign_keys", len(junction.ForeignKeys)),
	)
	return junction, nil
}

// referencedColumns resolves the columns a junction side mirrors. Explicit
// referenced names apply only when at least one join column carries one.
func referencedColumns(e *EntityMetadata, joins []JoinColumnSpec) ([]*ColumnMetadata, error) {
	explicit := slices.ContainsFunc(joins, func(j JoinColumnSpec) bool {
		return j.ReferencedColumnName != ""
	})
	if !explicit {
		return e.PrimaryColumns(), nil
	}
	cols := make([]*ColumnMetadata, 0, len(joins))
	for _, j := range joins {
		idx := slices.IndexFunc(e.Columns, func(c *ColumnMetadata) bool {
			return c.PropertyName == j.ReferencedColumnName
		})
		if idx == -1 {
			return nil, relmap.NewConfigurationError(e.Name, "referenced column %s was not found in entity %s", j.ReferencedColumnName, e.Name)
		}
		cols = append(cols, e.Columns[idx])
	}
	return cols, nil
}

// overrideName returns the physical name given by the first join column
// that targets ref (or targets nothing) and carries a name.
func overrideName(joins []JoinColumnSpec, ref *ColumnMetadata) string {
	for _, j := range joins {
		if (j.ReferencedColumnName == "" || j.ReferencedColumnName == ref.PropertyName) && j.Name != "" {
			return j.Name
		}
	}
	return ""
}

func (b *JunctionBuilder) junctionColumn(table, name string, ref *ColumnMetadata) *ColumnMetadata {
	c := &ColumnMetadata{
		EntityName:   table,
		PropertyName: name,
		PropertyPath: name,
		DatabaseName: name,
		Type:         ref.Type,
		DBType:       ref.DBType,
		Length:       ref.Length,
		Width:        ref.Width,
		Precision:    ref.Precision,
		Scale:        ref.Scale,
		Charset:      ref.Charset,
		Collation:    ref.Collation,
		Enum:         slices.Clone(ref.Enum),
		EnumName:     ref.EnumName,
		Zerofill:     ref.Zerofill,
		Unsigned:     ref.Unsigned || ref.Zerofill,
		Nullable:     false,
		Primary:      true,
		Mode:         ModeVirtual,
	}
	refID := ref.Ref()
	c.ReferencedColumn = &refID
	if b.dialect != nil && dialect.IsMySQLFamily(b.dialect.Name) && ref.Length == "" &&
		(ref.Type == field.TypeUUID || ref.Generated == GenerateUUID) {
		c.Length = "36"
	}
	return c
}

// actions resolves the referential actions of one foreign key against the
// cascade support of the dialect.
func (b *JunctionBuilder) actions(onDelete, onUpdate ReferentialAction) (ReferentialAction, ReferentialAction) {
	if onDelete == "" {
		onDelete = Cascade
	}
	if onUpdate == "" {
		onUpdate = Cascade
	}
	if b.dialect == nil {
		return onDelete, onUpdate
	}
	if !b.dialect.OnDeleteCascadeSupported() && !b.dialect.OnUpdateCascadeSupported() {
		return NoAction, NoAction
	}
	if !b.dialect.OnUpdateCascadeSupported() {
		onUpdate = NoAction
	}
	return onDelete, onUpdate
}

func columnNames(cols []*ColumnMetadata) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.DatabaseName
	}
	return names
}

// duplicateNames returns names repeated within one side.
func duplicateNames(sides ...[]*ColumnMetadata) []string {
	var dup []string
	for _, side := range sides {
		seen := make(map[string]bool, len(side))
		for _, c := range side {
			if seen[c.DatabaseName] {
				dup = append(dup, c.DatabaseName)
			}
			seen[c.DatabaseName] = true
		}
	}
	return dup
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
