package schema

import (
	"strings"

	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/schema/field"
)

// ColumnMode describes how a column is materialized.
type ColumnMode string

// Column modes.
const (
	ModeRegular    ColumnMode = "regular"
	ModeVirtual    ColumnMode = "virtual"
	ModeVersion    ColumnMode = "version"
	ModeCreateDate ColumnMode = "createDate"
	ModeUpdateDate ColumnMode = "updateDate"
)

// Generation is the value generation strategy of a column.
type Generation string

// Generation strategies.
const (
	GenerateNone      Generation = ""
	GenerateIncrement Generation = "increment"
	GenerateUUID      Generation = "uuid"
	GenerateRowID     Generation = "rowid"
)

// ReferentialAction defines the behavior of a foreign key constraint.
type ReferentialAction string

// Referential actions.
const (
	Cascade    ReferentialAction = "CASCADE"
	SetNull    ReferentialAction = "SET NULL"
	Restrict   ReferentialAction = "RESTRICT"
	SetDefault ReferentialAction = "SET DEFAULT"
	NoAction   ReferentialAction = "NO ACTION"
)

// EntityKind distinguishes user entities from synthesized ones.
type EntityKind string

// Entity kinds.
const (
	KindRegular  EntityKind = "regular"
	KindJunction EntityKind = "junction"
)

// RelationKind is the cardinality of a relation.
type RelationKind string

// Relation kinds.
const (
	ManyToMany RelationKind = "many-to-many"
	ManyToOne  RelationKind = "many-to-one"
	OneToMany  RelationKind = "one-to-many"
	OneToOne   RelationKind = "one-to-one"
)

// ColumnRef identifies a column by entity name and property path.
// It is resolved through Graph.Column and never owns the column.
type ColumnRef struct {
	Entity   string
	Property string
}

func (r ColumnRef) String() string { return r.Entity + "." + r.Property }

// RelationRef identifies a relation by entity name and property path.
type RelationRef struct {
	Entity   string
	Property string
}

func (r RelationRef) String() string { return r.Entity + "." + r.Property }

// ColumnMetadata describes one physical column of an entity.
type ColumnMetadata struct {
	EntityName   string
	PropertyName string
	// PropertyPath is PropertyName prefixed by the embedded path, if any.
	PropertyPath string
	DatabaseName string
	Type         field.Type
	// DBType is the physical type name, e.g. "varchar" or "point".
	DBType     string
	Length     string
	Width      int
	Precision  *int
	Scale      *int
	Charset    string
	Collation  string
	Enum       []string
	EnumName   string
	Unsigned   bool
	Zerofill   bool
	Nullable   bool
	Primary    bool
	Mode       ColumnMode
	Generated  Generation
	Expression string
	NoUpdate   bool
	SRID       *int
	// ReferencedColumn is the column this one mirrors on another entity.
	ReferencedColumn *ColumnRef
	// Relation is the relation that produced this column.
	Relation *RelationRef
}

// Path returns the property path, falling back to the property name.
func (c *ColumnMetadata) Path() string {
	if c.PropertyPath != "" {
		return c.PropertyPath
	}
	return c.PropertyName
}

// Ref returns the id reference of the column.
func (c *ColumnMetadata) Ref() ColumnRef {
	return ColumnRef{Entity: c.EntityName, Property: c.Path()}
}

// IsVersion reports whether the column is a row version counter.
func (c *ColumnMetadata) IsVersion() bool { return c.Mode == ModeVersion }

// IsUpdateDate reports whether the column tracks the last update time.
func (c *ColumnMetadata) IsUpdateDate() bool { return c.Mode == ModeUpdateDate }

// IsVirtual reports whether the column exists only in the database.
func (c *ColumnMetadata) IsVirtual() bool { return c.Mode == ModeVirtual }

// IsGenerated reports whether the database computes the column value.
func (c *ColumnMetadata) IsGenerated() bool { return c.Expression != "" }

// OutputColumn returns the description used to declare an output table
// column for c.
func (c *ColumnMetadata) OutputColumn() dialect.OutputColumn {
	return dialect.OutputColumn{
		Name:      c.DatabaseName,
		Type:      c.Type,
		DBType:    c.DBType,
		Length:    c.Length,
		Precision: c.Precision,
		Scale:     c.Scale,
	}
}

// ForeignKeyMetadata describes a foreign key. Columns and ReferencedColumns
// hold physical names and pair up by index.
type ForeignKeyMetadata struct {
	EntityName           string
	ReferencedEntityName string
	ReferencedTable      string
	Columns              []string
	ReferencedColumns    []string
	OnDelete             ReferentialAction
	OnUpdate             ReferentialAction
}

// IndexMetadata describes an index over physical column names.
type IndexMetadata struct {
	EntityName  string
	Name        string
	Columns     []string
	Unique      bool
	Synchronize bool
}

// JoinColumnSpec overrides the naming of one junction column.
type JoinColumnSpec struct {
	// Name is the physical column name.
	Name string
	// ReferencedColumnName is the property name of the referenced column.
	ReferencedColumnName string
}

// JoinTableSpec carries the join table options of a many-to-many relation.
type JoinTableSpec struct {
	Name               string
	Database           string
	Schema             string
	JoinColumns        []JoinColumnSpec
	InverseJoinColumns []JoinColumnSpec
}

// RelationMetadata describes a relation between two entities.
type RelationMetadata struct {
	Entity        *EntityMetadata
	InverseEntity *EntityMetadata
	PropertyName  string
	PropertyPath  string
	Kind          RelationKind
	// InverseRelation is the relation on the other side, if declared.
	InverseRelation             *RelationMetadata
	OnDelete                    ReferentialAction
	OnUpdate                    ReferentialAction
	CreateForeignKeyConstraints bool
	// JoinTable is set on the owning side of a many-to-many relation.
	JoinTable *JoinTableSpec
	// JoinColumns are the foreign key columns on the owning entity of a
	// many-to-one or owning one-to-one relation.
	JoinColumns []*ColumnMetadata
	// Junction is the synthesized link table of a many-to-many relation.
	Junction *EntityMetadata
}

// Path returns the property path, falling back to the property name.
func (r *RelationMetadata) Path() string {
	if r.PropertyPath != "" {
		return r.PropertyPath
	}
	return r.PropertyName
}

// Ref returns the id reference of the relation.
func (r *RelationMetadata) Ref() RelationRef {
	return RelationRef{Entity: r.Entity.Name, Property: r.Path()}
}

// EntityMetadata is the logical descriptor of a table.
type EntityMetadata struct {
	Name      string
	TableName string
	Database  string
	Schema    string
	Kind      EntityKind
	Columns   []*ColumnMetadata
	// OwnerColumns and InverseColumns partition Columns of a junction.
	OwnerColumns   []*ColumnMetadata
	InverseColumns []*ColumnMetadata
	ForeignKeys    []*ForeignKeyMetadata
	Indices        []*IndexMetadata
	Relations      []*RelationMetadata
	// OwnerRelation links a junction back to the relation it serves.
	OwnerRelation *RelationRef
}

// Table returns the table name, falling back to the entity name.
func (e *EntityMetadata) Table() string {
	if e.TableName != "" {
		return e.TableName
	}
	return e.Name
}

// TablePath returns the table name qualified by database and schema.
func (e *EntityMetadata) TablePath() string {
	var parts []string
	if e.Database != "" {
		parts = append(parts, e.Database)
	}
	if e.Schema != "" {
		parts = append(parts, e.Schema)
	}
	return strings.Join(append(parts, e.Table()), ".")
}

// PrimaryColumns returns the primary key columns in declaration order.
func (e *EntityMetadata) PrimaryColumns() []*ColumnMetadata {
	var cols []*ColumnMetadata
	for _, c := range e.Columns {
		if c.Primary {
			cols = append(cols, c)
		}
	}
	return cols
}

// VersionColumn returns the version column or nil.
func (e *EntityMetadata) VersionColumn() *ColumnMetadata {
	for _, c := range e.Columns {
		if c.IsVersion() {
			return c
		}
	}
	return nil
}

// UpdateDateColumn returns the update-date column or nil.
func (e *EntityMetadata) UpdateDateColumn() *ColumnMetadata {
	for _, c := range e.Columns {
		if c.IsUpdateDate() {
			return c
		}
	}
	return nil
}

// Column returns the column with the exact property path.
func (e *EntityMetadata) Column(path string) *ColumnMetadata {
	for _, c := range e.Columns {
		if c.Path() == path {
			return c
		}
	}
	return nil
}

// ColumnByName returns the column with the given physical name.
func (e *EntityMetadata) ColumnByName(name string) *ColumnMetadata {
	for _, c := range e.Columns {
		if c.DatabaseName == name {
			return c
		}
	}
	return nil
}

// Relation returns the relation with the given property path.
func (e *EntityMetadata) Relation(path string) *RelationMetadata {
	for _, r := range e.Relations {
		if r.Path() == path {
			return r
		}
	}
	return nil
}

// FindColumnsWithPropertyPath expands a property path into columns. A path
// matches a column directly, the join columns of a relation, or every column
// of an embedded object.
func (e *EntityMetadata) FindColumnsWithPropertyPath(path string) []*ColumnMetadata {
	if c := e.Column(path); c != nil {
		return []*ColumnMetadata{c}
	}
	if r := e.Relation(path); r != nil && len(r.JoinColumns) > 0 {
		return r.JoinColumns
	}
	var cols []*ColumnMetadata
	prefix := path + "."
	for _, c := range e.Columns {
		if strings.HasPrefix(c.Path(), prefix) {
			cols = append(cols, c)
		}
	}
	return cols
}

// EntityIDMap extracts the primary key values of ent. It reports false when
// the entity has no primary columns or any of them is unset.
func (e *EntityMetadata) EntityIDMap(ent Entity) (map[string]any, bool) {
	pks := e.PrimaryColumns()
	if len(pks) == 0 || ent == nil {
		return nil, false
	}
	ids := make(map[string]any, len(pks))
	for _, c := range pks {
		v, ok := ent.Value(c.Path())
		if !ok || isNil(v) {
			return nil, false
		}
		ids[c.Path()] = v
	}
	return ids, true
}
