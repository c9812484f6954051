package sql

import (
	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/field"
)

func intPtr(i int) *int { return &i }

// userMeta describes a versioned table named "user".
func userMeta() *schema.EntityMetadata {
	return &schema.EntityMetadata{
		Name:      "User",
		TableName: "user",
		Columns: []*schema.ColumnMetadata{
			{EntityName: "User", PropertyName: "id", DatabaseName: "id", Type: field.TypeInt, Primary: true, Generated: schema.GenerateIncrement},
			{EntityName: "User", PropertyName: "name", DatabaseName: "name", Type: field.TypeString},
			{EntityName: "User", PropertyName: "version", DatabaseName: "version", Type: field.TypeInt, Mode: schema.ModeVersion},
		},
	}
}

// postMeta describes a table with a foreign key, embedded counters and
// columns of every update treatment.
func postMeta() *schema.EntityMetadata {
	author := &schema.ColumnMetadata{
		EntityName:       "Post",
		PropertyName:     "author",
		DatabaseName:     "authorId",
		Type:             field.TypeInt,
		Nullable:         true,
		ReferencedColumn: &schema.ColumnRef{Entity: "User", Property: "id"},
	}
	return &schema.EntityMetadata{
		Name:      "Post",
		TableName: "posts",
		Columns: []*schema.ColumnMetadata{
			{EntityName: "Post", PropertyName: "id", DatabaseName: "id", Type: field.TypeInt, Primary: true},
			{EntityName: "Post", PropertyName: "title", DatabaseName: "title", Type: field.TypeString},
			{EntityName: "Post", PropertyName: "slug", DatabaseName: "slug", Type: field.TypeString, NoUpdate: true},
			{EntityName: "Post", PropertyName: "published", DatabaseName: "published", Type: field.TypeBool},
			{EntityName: "Post", PropertyName: "tags", DatabaseName: "tags", Type: field.TypeSimpleArray},
			{EntityName: "Post", PropertyName: "location", DatabaseName: "location", Type: field.TypeSpatial, DBType: "geometry", SRID: intPtr(4326)},
			{EntityName: "Post", PropertyName: "likes", PropertyPath: "counters.likes", DatabaseName: "likes", Type: field.TypeInt},
			{EntityName: "Post", PropertyName: "views", PropertyPath: "counters.views", DatabaseName: "views", Type: field.TypeInt},
			author,
			{EntityName: "Post", PropertyName: "wordCount", DatabaseName: "wordCount", Type: field.TypeInt, Expression: "length(title)"},
			{EntityName: "Post", PropertyName: "updatedAt", DatabaseName: "updatedAt", Type: field.TypeTime, Mode: schema.ModeUpdateDate},
		},
		Relations: []*schema.RelationMetadata{
			{PropertyName: "writer", Kind: schema.ManyToOne, JoinColumns: []*schema.ColumnMetadata{author}},
		},
	}
}

// memberMeta describes a table with a composite primary key.
func memberMeta() *schema.EntityMetadata {
	return &schema.EntityMetadata{
		Name:      "Member",
		TableName: "members",
		Columns: []*schema.ColumnMetadata{
			{EntityName: "Member", PropertyName: "orgId", DatabaseName: "org_id", Type: field.TypeInt, Primary: true},
			{EntityName: "Member", PropertyName: "userId", DatabaseName: "user_id", Type: field.TypeInt, Primary: true},
			{EntityName: "Member", PropertyName: "role", DatabaseName: "role", Type: field.TypeString},
		},
	}
}
