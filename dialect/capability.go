package dialect

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"

	"github.com/syssam/relmap/schema/field"
)

// Operation names a statement kind for capability queries.
type Operation string

// Statement kinds.
const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ReturningStyle describes how a dialect hands back rows touched by a write.
type ReturningStyle uint8

// Returning styles.
const (
	ReturningNone     ReturningStyle = iota
	ReturningTrailing                // ... RETURNING a, b
	ReturningOutput                  // ... OUTPUT INSERTED.a INTO @t ... ; SELECT * FROM @t
)

// PlaceholderStyle describes the bind parameter syntax of a dialect.
type PlaceholderStyle uint8

// Placeholder styles.
const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1
	PlaceholderAtP                              // @p1
	PlaceholderColon                            // :1
)

// SpatialSyntax selects the geometry constructor family of a dialect.
type SpatialSyntax uint8

// Spatial syntaxes.
const (
	SpatialNone SpatialSyntax = iota
	SpatialMySQL
	SpatialPostGIS
	SpatialMSSQL
)

// OutputVariable is the table variable used to capture OUTPUT rows.
const OutputVariable = "@OutputTable"

// StatementSeparator joins the statements of one execution batch.
const StatementSeparator = ";\n\n"

// Capability is the set of SQL-generation facts of one connection type.
// Values returned by Lookup are shared and must not be modified.
type Capability struct {
	Name string
	// Returning maps statement kinds to their returning mechanism.
	Returning map[Operation]ReturningStyle
	// UpdateLimit reports support for UPDATE ... LIMIT n.
	UpdateLimit bool
	// OnUpdateCascade and OnDeleteCascade report support for the
	// referential actions of foreign keys.
	OnUpdateCascade bool
	OnDeleteCascade bool
	// SpatialTypes lists the physical type names treated as geometries.
	SpatialTypes []string
	Spatial      SpatialSyntax
	// LegacySpatial selects GeomFromText over ST_GeomFromText (MySQL < 8).
	LegacySpatial bool
	// NullLiteral renders NULL values inline instead of binding them.
	NullLiteral bool
	// NativeBool is false when booleans are stored as 0/1.
	NativeBool bool
	// TextDateTime stores timestamps as UTC text.
	TextDateTime bool
	// NativeArray is true when list values bind as PostgreSQL arrays.
	NativeArray bool
	// NationalText is true when plain string parameters are sent as
	// unicode and non-unicode columns need an explicit parameter type.
	NationalText bool
	Quote        [2]string
	Placeholders PlaceholderStyle
}

// IsReturningSupported reports whether rows touched by op can be returned in
// the same round trip.
func (c *Capability) IsReturningSupported(op Operation) bool {
	return c.ReturningStyle(op) != ReturningNone
}

// ReturningStyle returns the returning mechanism for op.
func (c *Capability) ReturningStyle(op Operation) ReturningStyle {
	return c.Returning[op]
}

// SupportsLimitOnUpdate reports support for UPDATE ... LIMIT.
func (c *Capability) SupportsLimitOnUpdate() bool { return c.UpdateLimit }

// OnUpdateCascadeSupported reports support for ON UPDATE CASCADE.
func (c *Capability) OnUpdateCascadeSupported() bool { return c.OnUpdateCascade }

// OnDeleteCascadeSupported reports support for ON DELETE CASCADE.
func (c *Capability) OnDeleteCascadeSupported() bool { return c.OnDeleteCascade }

// NullAsLiteral reports whether NULL values are written inline.
func (c *Capability) NullAsLiteral() bool { return c.NullLiteral }

// IsSpatialType reports whether the physical type is a geometry type that
// needs a constructor call.
func (c *Capability) IsSpatialType(dbType string) bool {
	if c.Spatial == SpatialNone || dbType == "" {
		return false
	}
	for _, t := range c.SpatialTypes {
		if strings.EqualFold(t, dbType) {
			return true
		}
	}
	return false
}

// SpatialExpr wraps a bound placeholder in the dialect's geometry
// constructor. srid is optional.
func (c *Capability) SpatialExpr(placeholder, dbType string, srid *int) string {
	switch c.Spatial {
	case SpatialMySQL:
		fn := "ST_GeomFromText"
		if c.LegacySpatial {
			fn = "GeomFromText"
		}
		if srid != nil {
			return fmt.Sprintf("%s(%s, %d)", fn, placeholder, *srid)
		}
		return fmt.Sprintf("%s(%s)", fn, placeholder)
	case SpatialPostGIS:
		if srid != nil {
			return fmt.Sprintf("ST_SetSRID(ST_GeomFromGeoJSON(%s), %d)::%s", placeholder, *srid, dbType)
		}
		return fmt.Sprintf("ST_GeomFromGeoJSON(%s)::%s", placeholder, dbType)
	case SpatialMSSQL:
		s := 0
		if srid != nil {
			s = *srid
		}
		return fmt.Sprintf("%s::STGeomFromText(%s, %d)", dbType, placeholder, s)
	default:
		return placeholder
	}
}

// QuoteIdent quotes an identifier, doubling embedded quote characters.
// Dotted paths are quoted per segment.
func (c *Capability) QuoteIdent(ident string) string {
	open, closing := c.Quote[0], c.Quote[1]
	if open == "" {
		open, closing = `"`, `"`
	}
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = open + strings.ReplaceAll(p, closing, closing+closing) + closing
	}
	return strings.Join(parts, ".")
}

// Placeholder returns the bind marker for the n-th (1-based) parameter.
func (c *Capability) Placeholder(n int) string {
	switch c.Placeholders {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(n)
	case PlaceholderAtP:
		return "@p" + strconv.Itoa(n)
	case PlaceholderColon:
		return ":" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// OutputColumn describes one column of an output table variable.
type OutputColumn struct {
	Name      string
	Type      field.Type
	DBType    string
	Length    string
	Precision *int
	Scale     *int
}

// OutputTableDeclaration renders the table variable that captures OUTPUT rows.
// It returns "" for dialects that do not use output tables.
func (c *Capability) OutputTableDeclaration(name string, columns []OutputColumn) string {
	if c.ReturningStyle(OpUpdate) != ReturningOutput {
		return ""
	}
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = c.QuoteIdent(col.Name) + " " + outputColumnType(col)
	}
	return fmt.Sprintf("DECLARE %s TABLE (%s)", name, strings.Join(defs, ", "))
}

func outputColumnType(col OutputColumn) string {
	if col.DBType != "" {
		switch {
		case col.Length != "":
			return fmt.Sprintf("%s(%s)", col.DBType, col.Length)
		case col.Precision != nil && col.Scale != nil:
			return fmt.Sprintf("%s(%d,%d)", col.DBType, *col.Precision, *col.Scale)
		}
		return col.DBType
	}
	switch col.Type {
	case field.TypeBool:
		return "bit"
	case field.TypeInt8, field.TypeUint8:
		return "tinyint"
	case field.TypeInt16:
		return "smallint"
	case field.TypeInt, field.TypeInt32, field.TypeUint16:
		return "int"
	case field.TypeInt64, field.TypeUint, field.TypeUint32, field.TypeUint64:
		return "bigint"
	case field.TypeFloat32:
		return "real"
	case field.TypeFloat64:
		return "float"
	case field.TypeDecimal:
		if col.Precision != nil && col.Scale != nil {
			return fmt.Sprintf("decimal(%d,%d)", *col.Precision, *col.Scale)
		}
		return "decimal(18,2)"
	case field.TypeUUID:
		return "uniqueidentifier"
	case field.TypeTime:
		return "datetime2"
	case field.TypeDate:
		return "date"
	case field.TypeBytes:
		return "varbinary(MAX)"
	case field.TypeSpatial:
		return "geometry"
	case field.TypeString, field.TypeEnum:
		if col.Length != "" {
			return "nvarchar(" + col.Length + ")"
		}
		return "nvarchar(255)"
	default:
		return "nvarchar(MAX)"
	}
}

// WithLegacySpatial returns a copy of c that uses the pre-8.0 MySQL
// geometry constructor names.
func (c *Capability) WithLegacySpatial() *Capability {
	cp := *c
	cp.LegacySpatial = true
	cp.Returning = maps.Clone(c.Returning)
	cp.SpatialTypes = append([]string(nil), c.SpatialTypes...)
	return &cp
}

var mysqlSpatialTypes = []string{
	"geometry", "point", "linestring", "polygon",
	"multipoint", "multilinestring", "multipolygon", "geometrycollection",
}

func mysqlFamily(name string) *Capability {
	return &Capability{
		Name:            name,
		Returning:       map[Operation]ReturningStyle{},
		UpdateLimit:     true,
		OnUpdateCascade: true,
		OnDeleteCascade: true,
		SpatialTypes:    mysqlSpatialTypes,
		Spatial:         SpatialMySQL,
		Quote:           [2]string{"`", "`"},
		Placeholders:    PlaceholderQuestion,
	}
}

func postgresFamily(name string) *Capability {
	return &Capability{
		Name: name,
		Returning: map[Operation]ReturningStyle{
			OpInsert: ReturningTrailing,
			OpUpdate: ReturningTrailing,
			OpDelete: ReturningTrailing,
		},
		OnUpdateCascade: true,
		OnDeleteCascade: true,
		SpatialTypes:    []string{"geometry", "geography"},
		Spatial:         SpatialPostGIS,
		NativeBool:      true,
		NativeArray:     true,
		Quote:           [2]string{`"`, `"`},
		Placeholders:    PlaceholderDollar,
	}
}

func builtins() []*Capability {
	return []*Capability{
		postgresFamily(Postgres),
		postgresFamily(CockroachDB),
		mysqlFamily(MySQL),
		mysqlFamily(MariaDB),
		mysqlFamily(AuroraMySQL),
		{
			Name: SQLite,
			Returning: map[Operation]ReturningStyle{
				OpInsert: ReturningTrailing,
				OpUpdate: ReturningTrailing,
				OpDelete: ReturningTrailing,
			},
			OnUpdateCascade: true,
			OnDeleteCascade: true,
			TextDateTime:    true,
			Quote:           [2]string{`"`, `"`},
			Placeholders:    PlaceholderQuestion,
		},
		{
			Name: SQLServer,
			Returning: map[Operation]ReturningStyle{
				OpInsert: ReturningOutput,
				OpUpdate: ReturningOutput,
				OpDelete: ReturningOutput,
			},
			OnUpdateCascade: true,
			OnDeleteCascade: true,
			SpatialTypes:    []string{"geometry", "geography"},
			Spatial:         SpatialMSSQL,
			NativeBool:      true,
			NationalText:    true,
			Quote:           [2]string{`"`, `"`},
			Placeholders:    PlaceholderAtP,
		},
		{
			Name:            Oracle,
			Returning:       map[Operation]ReturningStyle{},
			OnUpdateCascade: false,
			OnDeleteCascade: true,
			Quote:           [2]string{`"`, `"`},
			Placeholders:    PlaceholderColon,
		},
		{
			Name:            Spanner,
			Returning:       map[Operation]ReturningStyle{},
			OnUpdateCascade: false,
			OnDeleteCascade: false,
			NativeBool:      true,
			Quote:           [2]string{"`", "`"},
			Placeholders:    PlaceholderAtP,
		},
		{
			Name:            SAP,
			Returning:       map[Operation]ReturningStyle{},
			OnUpdateCascade: true,
			OnDeleteCascade: true,
			NullLiteral:     true,
			Quote:           [2]string{`"`, `"`},
			Placeholders:    PlaceholderQuestion,
		},
	}
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Capability)
	aliases    = map[string]string{
		"postgresql": Postgres,
		"pgx":        Postgres,
		"cockroach":  CockroachDB,
		"sqlite3":    SQLite,
		"sqlserver":  SQLServer,
		"aurora":     AuroraMySQL,
		"hana":       SAP,
	}
)

func init() {
	for _, c := range builtins() {
		Register(c)
	}
}

// Register adds or replaces the capability entry for c.Name.
func Register(c *Capability) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(c.Name)] = c
}

// Lookup returns the capability entry of the named dialect. Driver names
// such as "pgx", "sqlite3" and "sqlserver" are accepted as aliases.
func Lookup(name string) (*Capability, error) {
	key := strings.ToLower(name)
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("dialect: unknown dialect %q", name)
	}
	return c, nil
}

// MustLookup is like Lookup but panics if the dialect is unknown.
func MustLookup(name string) *Capability {
	c, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return c
}
