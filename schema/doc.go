// Package schema holds the entity metadata graph used to compile statements.
//
// Metadata is assembled once, usually from declarations, and is read-only
// afterwards:
//
//	user := &schema.EntityMetadata{
//	    Name: "User",
//	    Columns: []*schema.ColumnMetadata{
//	        {PropertyName: "id", DatabaseName: "id", Type: field.TypeInt, Primary: true},
//	        {PropertyName: "name", DatabaseName: "name", Type: field.TypeString},
//	        {PropertyName: "version", DatabaseName: "version", Type: field.TypeInt, Mode: schema.ModeVersion},
//	    },
//	}
//
// # Junctions
//
// The owning side of a many-to-many relation carries a JoinTableSpec. The
// link table is synthesized by a JunctionBuilder, either directly or for the
// whole graph:
//
//	g, err := schema.NewGraph(post, tag)
//	if err != nil {
//	    return err
//	}
//	b := schema.NewJunctionBuilder(dialect.MustLookup(dialect.MySQL))
//	junctions, err := g.BuildJunctions(ctx, b)
//
// Junction columns mirror the referenced primary (or explicitly named)
// columns, are non-null and primary, and reference their source column by
// ColumnRef rather than by pointer.
//
// # Entities
//
// In-memory rows implement Entity. Record covers dynamic rows and Bind
// adapts struct pointers:
//
//	u := &User{ID: 1}
//	ent := schema.Bind(u)
package schema
