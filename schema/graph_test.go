package schema_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/field"
)

func TestGraph(t *testing.T) {
	post, category, rel := postCategories()
	g, err := schema.NewGraph(post, category)
	require.NoError(t, err)

	e, ok := g.Entity("Post")
	require.True(t, ok)
	assert.Same(t, post, e)
	assert.Equal(t, []*schema.EntityMetadata{post, category}, g.Entities())

	c, ok := g.Column(schema.ColumnRef{Entity: "Category", Property: "id"})
	require.True(t, ok)
	assert.Same(t, category.Columns[0], c)
	_, ok = g.Column(schema.ColumnRef{Entity: "Category", Property: "slug"})
	assert.False(t, ok)
	_, ok = g.Column(schema.ColumnRef{Entity: "Tag", Property: "id"})
	assert.False(t, ok)

	r, ok := g.Relation(schema.RelationRef{Entity: "Post", Property: "categories"})
	require.True(t, ok)
	assert.Same(t, rel, r)
	assert.Equal(t, []*schema.RelationMetadata{rel}, g.ManyToMany(), "only the owning side is built")

	err = g.Add(&schema.EntityMetadata{Name: "Post"})
	assert.True(t, relmap.IsConfigurationError(err))
	err = g.Add(&schema.EntityMetadata{})
	assert.True(t, relmap.IsConfigurationError(err))
}

func TestGraphBuildJunctions(t *testing.T) {
	post, category, rel := postCategories()
	tag := &schema.EntityMetadata{
		Name:      "Tag",
		TableName: "tag",
		Columns:   []*schema.ColumnMetadata{primary("id", field.TypeUUID)},
	}
	tags := &schema.RelationMetadata{
		Entity:                      post,
		InverseEntity:               tag,
		PropertyName:                "tags",
		Kind:                        schema.ManyToMany,
		CreateForeignKeyConstraints: true,
		JoinTable:                   &schema.JoinTableSpec{},
	}
	post.Relations = append(post.Relations, tags)
	g, err := schema.NewGraph(post, category, tag)
	require.NoError(t, err)

	junctions, err := g.BuildJunctions(context.Background(), builder(dialect.MySQL, plainNaming{}))
	require.NoError(t, err)
	require.Len(t, junctions, 2)
	assert.Equal(t, "post_categories_category", junctions[0].Name)
	assert.Equal(t, "post_tags_tag", junctions[1].Name)
	assert.Equal(t, "36", junctions[1].InverseColumns[0].Length)

	assert.Same(t, junctions[0], rel.Junction)
	assert.Same(t, junctions[0], rel.InverseRelation.Junction)
	assert.Same(t, junctions[1], tags.Junction)
	_, ok := g.Entity("post_tags_tag")
	assert.True(t, ok)
	assert.Empty(t, g.ManyToMany())

	res := schema.ValidateGraph(g)
	assert.False(t, res.HasErrors(), res.String())
	require.NoError(t, res.Err())
}

func TestGraphBuildJunctionsErrors(t *testing.T) {
	post, category, rel := postCategories()
	rel.JoinTable.JoinColumns = []schema.JoinColumnSpec{{ReferencedColumnName: "slug"}}
	rel.JoinTable.InverseJoinColumns = []schema.JoinColumnSpec{{ReferencedColumnName: "slug"}}
	other := &schema.RelationMetadata{
		Entity:        category,
		InverseEntity: post,
		PropertyName:  "featured",
		Kind:          schema.ManyToMany,
		JoinTable: &schema.JoinTableSpec{
			JoinColumns: []schema.JoinColumnSpec{{ReferencedColumnName: "code"}},
		},
	}
	category.Relations = append(category.Relations, other)
	g, err := schema.NewGraph(post, category)
	require.NoError(t, err)

	_, err = g.BuildJunctions(context.Background(), builder(dialect.Postgres, plainNaming{}))
	require.Error(t, err)
	var agg *relmap.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Len(t, agg.Errors, 2)
	assert.True(t, relmap.IsConfigurationError(err))
	assert.Nil(t, rel.Junction)
	assert.Len(t, g.Entities(), 2)
}

func TestGraphBuildJunctionsCanceled(t *testing.T) {
	post, category, _ := postCategories()
	g, err := schema.NewGraph(post, category)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.BuildJunctions(ctx, builder(dialect.Postgres, plainNaming{}))
	assert.ErrorIs(t, err, context.Canceled)
}
