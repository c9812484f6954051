// Package schemafile loads entity declarations from YAML into a metadata
// graph.
package schemafile

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/field"
)

// File is the root of a declaration file.
type File struct {
	Entities []Entity `yaml:"entities"`
}

// Entity declares one table.
type Entity struct {
	Name      string     `yaml:"name"`
	Table     string     `yaml:"table,omitempty"`
	Database  string     `yaml:"database,omitempty"`
	Schema    string     `yaml:"schema,omitempty"`
	Columns   []Column   `yaml:"columns"`
	Relations []Relation `yaml:"relations,omitempty"`
}

// Column declares one column. Name is the property name; Path overrides it
// for columns of embedded objects.
type Column struct {
	Name       string   `yaml:"name"`
	Path       string   `yaml:"path,omitempty"`
	Column     string   `yaml:"column,omitempty"`
	Type       string   `yaml:"type"`
	DBType     string   `yaml:"db_type,omitempty"`
	Length     string   `yaml:"length,omitempty"`
	Precision  *int     `yaml:"precision,omitempty"`
	Scale      *int     `yaml:"scale,omitempty"`
	Charset    string   `yaml:"charset,omitempty"`
	Collation  string   `yaml:"collation,omitempty"`
	Enum       []string `yaml:"enum,omitempty"`
	Unsigned   bool     `yaml:"unsigned,omitempty"`
	Zerofill   bool     `yaml:"zerofill,omitempty"`
	Nullable   bool     `yaml:"nullable,omitempty"`
	Primary    bool     `yaml:"primary,omitempty"`
	Mode       string   `yaml:"mode,omitempty"`
	Generated  string   `yaml:"generated,omitempty"`
	Expression string   `yaml:"expression,omitempty"`
	NoUpdate   bool     `yaml:"no_update,omitempty"`
	SRID       *int     `yaml:"srid,omitempty"`
}

// Relation declares one side of a relation.
type Relation struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Target   string `yaml:"target"`
	Inverse  string `yaml:"inverse,omitempty"`
	OnDelete string `yaml:"on_delete,omitempty"`
	OnUpdate string `yaml:"on_update,omitempty"`
	// ForeignKeys defaults to true.
	ForeignKeys *bool        `yaml:"foreign_keys,omitempty"`
	JoinColumns []JoinColumn `yaml:"join_columns,omitempty"`
	JoinTable   *JoinTable   `yaml:"join_table,omitempty"`
}

// JoinColumn names a foreign key column and the column it references.
type JoinColumn struct {
	Name       string `yaml:"name,omitempty"`
	References string `yaml:"references,omitempty"`
}

// JoinTable marks the owning side of a many-to-many relation.
type JoinTable struct {
	Name           string       `yaml:"name,omitempty"`
	Database       string       `yaml:"database,omitempty"`
	Schema         string       `yaml:"schema,omitempty"`
	JoinColumns    []JoinColumn `yaml:"join_columns,omitempty"`
	InverseColumns []JoinColumn `yaml:"inverse_join_columns,omitempty"`
}

// Load reads a declaration file from path.
func Load(path string) (*schema.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a declaration file and builds the graph. Junctions are not
// built.
func Decode(r io.Reader) (*schema.Graph, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("schemafile: decode: %w", err)
	}
	return file.Graph()
}

// Graph converts the declarations into metadata.
func (f *File) Graph() (*schema.Graph, error) {
	g, err := schema.NewGraph()
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, e := range f.Entities {
		meta, err := e.metadata()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := g.Add(meta); err != nil {
			errs = append(errs, err)
		}
	}
	if err := relmap.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	for _, e := range f.Entities {
		meta, _ := g.Entity(e.Name)
		for _, r := range e.Relations {
			if err := addRelation(g, meta, r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := relmap.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	linkInverses(g, f.Entities)
	return g, nil
}

func (e Entity) metadata() (*schema.EntityMetadata, error) {
	meta := &schema.EntityMetadata{
		Name:      e.Name,
		TableName: e.Table,
		Database:  e.Database,
		Schema:    e.Schema,
	}
	for _, c := range e.Columns {
		col, err := c.metadata(e.Name)
		if err != nil {
			return nil, err
		}
		meta.Columns = append(meta.Columns, col)
	}
	return meta, nil
}

func (c Column) metadata(entity string) (*schema.ColumnMetadata, error) {
	t := field.Parse(c.Type)
	if !t.Valid() {
		return nil, relmap.NewConfigurationError(entity, "column %s has unknown type %q", c.Name, c.Type)
	}
	mode := schema.ModeRegular
	if c.Mode != "" {
		mode = schema.ColumnMode(c.Mode)
		switch mode {
		case schema.ModeRegular, schema.ModeVirtual, schema.ModeVersion, schema.ModeCreateDate, schema.ModeUpdateDate:
		default:
			return nil, relmap.NewConfigurationError(entity, "column %s has unknown mode %q", c.Name, c.Mode)
		}
	}
	return &schema.ColumnMetadata{
		EntityName:   entity,
		PropertyName: c.Name,
		PropertyPath: c.Path,
		DatabaseName: firstNonEmpty(c.Column, c.Name),
		Type:         t,
		DBType:       c.DBType,
		Length:       c.Length,
		Precision:    c.Precision,
		Scale:        c.Scale,
		Charset:      c.Charset,
		Collation:    c.Collation,
		Enum:         c.Enum,
		Unsigned:     c.Unsigned,
		Zerofill:     c.Zerofill,
		Nullable:     c.Nullable,
		Primary:      c.Primary,
		Mode:         mode,
		Generated:    schema.Generation(c.Generated),
		Expression:   c.Expression,
		NoUpdate:     c.NoUpdate,
		SRID:         c.SRID,
	}, nil
}

func addRelation(g *schema.Graph, owner *schema.EntityMetadata, r Relation) error {
	target, ok := g.Entity(r.Target)
	if !ok {
		return relmap.NewConfigurationError(owner.Name, "relation %s targets unknown entity %s", r.Name, r.Target)
	}
	kind := schema.RelationKind(r.Kind)
	rel := &schema.RelationMetadata{
		Entity:                      owner,
		InverseEntity:               target,
		PropertyName:                r.Name,
		Kind:                        kind,
		OnDelete:                    schema.ReferentialAction(r.OnDelete),
		OnUpdate:                    schema.ReferentialAction(r.OnUpdate),
		CreateForeignKeyConstraints: r.ForeignKeys == nil || *r.ForeignKeys,
	}
	switch kind {
	case schema.ManyToMany:
		if jt := r.JoinTable; jt != nil {
			rel.JoinTable = &schema.JoinTableSpec{
				Name:               jt.Name,
				Database:           jt.Database,
				Schema:             jt.Schema,
				JoinColumns:        joinSpecs(jt.JoinColumns),
				InverseJoinColumns: joinSpecs(jt.InverseColumns),
			}
		}
	case schema.ManyToOne, schema.OneToOne:
		for _, jc := range r.JoinColumns {
			col, err := joinColumn(owner, target, r, jc)
			if err != nil {
				return err
			}
			rel.JoinColumns = append(rel.JoinColumns, col)
		}
	case schema.OneToMany:
	default:
		return relmap.NewConfigurationError(owner.Name, "relation %s has unknown kind %q", r.Name, r.Kind)
	}
	owner.Relations = append(owner.Relations, rel)
	return nil
}

// joinColumn returns the foreign key column of a relation, declaring it on
// the owner when it is not declared yet.
func joinColumn(owner, target *schema.EntityMetadata, r Relation, jc JoinColumn) (*schema.ColumnMetadata, error) {
	var ref *schema.ColumnMetadata
	if jc.References != "" {
		ref = target.Column(jc.References)
	} else if pks := target.PrimaryColumns(); len(pks) == 1 {
		ref = pks[0]
	}
	if ref == nil {
		return nil, relmap.NewConfigurationError(owner.Name, "relation %s: referenced column %q was not found in entity %s", r.Name, jc.References, target.Name)
	}
	name := firstNonEmpty(jc.Name, r.Name+"Id")
	if col := owner.ColumnByName(name); col != nil {
		col.ReferencedColumn = &schema.ColumnRef{Entity: target.Name, Property: ref.Path()}
		return col, nil
	}
	col := &schema.ColumnMetadata{
		EntityName:       owner.Name,
		PropertyName:     r.Name,
		DatabaseName:     name,
		Type:             ref.Type,
		DBType:           ref.DBType,
		Length:           ref.Length,
		Unsigned:         ref.Unsigned,
		Nullable:         true,
		Mode:             schema.ModeRegular,
		ReferencedColumn: &schema.ColumnRef{Entity: target.Name, Property: ref.Path()},
		Relation:         &schema.RelationRef{Entity: owner.Name, Property: r.Name},
	}
	owner.Columns = append(owner.Columns, col)
	return col, nil
}

func linkInverses(g *schema.Graph, entities []Entity) {
	for _, e := range entities {
		for _, r := range e.Relations {
			if r.Inverse == "" {
				continue
			}
			rel, ok := g.Relation(schema.RelationRef{Entity: e.Name, Property: r.Name})
			if !ok {
				continue
			}
			if inv, ok := g.Relation(schema.RelationRef{Entity: r.Target, Property: r.Inverse}); ok {
				rel.InverseRelation = inv
			}
		}
	}
}

func joinSpecs(cols []JoinColumn) []schema.JoinColumnSpec {
	specs := make([]schema.JoinColumnSpec, len(cols))
	for i, c := range cols {
		specs[i] = schema.JoinColumnSpec{Name: c.Name, ReferencedColumnName: c.References}
	}
	return specs
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
