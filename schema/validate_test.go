package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/field"
)

func TestValidateJunction(t *testing.T) {
	t.Run("NotJunction", func(t *testing.T) {
		res := schema.ValidateJunction(&schema.EntityMetadata{Name: "User", Kind: schema.KindRegular})
		require.True(t, res.HasErrors())
		assert.Equal(t, "User: not a junction entity", res.Errors[0].Error())
	})

	t.Run("Broken", func(t *testing.T) {
		owner := &schema.ColumnMetadata{PropertyName: "a", DatabaseName: "a", Type: field.TypeInt, Primary: true}
		inverse := &schema.ColumnMetadata{PropertyName: "b", DatabaseName: "b", Type: field.TypeInt, Nullable: true}
		j := &schema.EntityMetadata{
			Name:           "a_b",
			Kind:           schema.KindJunction,
			Columns:        []*schema.ColumnMetadata{owner, inverse},
			OwnerColumns:   []*schema.ColumnMetadata{owner},
			InverseColumns: []*schema.ColumnMetadata{inverse},
			ForeignKeys: []*schema.ForeignKeyMetadata{
				{ReferencedEntityName: "A", Columns: []string{"a", "c"}, ReferencedColumns: []string{"id"}},
			},
			Indices: []*schema.IndexMetadata{{Columns: []string{"z"}}},
		}
		res := schema.ValidateJunction(j)
		require.True(t, res.HasErrors())
		assert.True(t, res.HasWarnings())
		out := res.String()
		for _, msg := range []string{
			"a_b: primary key differs from the union of owner and inverse columns",
			"a_b.b: junction column is nullable",
			"a_b.b: junction column is not primary",
			"a_b: junction has 1 foreign keys, want 0 or 2",
			"foreign key to A pairs 2 columns with 1 referenced columns",
			`foreign key references non-existent column "c"`,
			`index references non-existent column "z"`,
			"a_b.a: junction column references no column",
		} {
			assert.Contains(t, out, msg)
		}

		err := res.Err()
		require.Error(t, err)
		assert.True(t, relmap.IsValidationError(err))
		assert.ErrorIs(t, err, relmap.ErrValidation)
	})

	t.Run("Clean", func(t *testing.T) {
		res := &schema.ValidationResult{}
		assert.Equal(t, "No issues found", res.String())
		assert.NoError(t, res.Err())
	})
}

func TestValidateGraphReferences(t *testing.T) {
	e := &schema.EntityMetadata{
		Name: "Comment",
		Columns: []*schema.ColumnMetadata{
			primary("id", field.TypeInt),
			{PropertyName: "postId", DatabaseName: "post_id", ReferencedColumn: &schema.ColumnRef{Entity: "Post", Property: "id"}},
		},
	}
	g, err := schema.NewGraph(e)
	require.NoError(t, err)
	res := schema.ValidateGraph(g)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Comment.post_id: referenced column Post.id does not exist", res.Errors[0].Error())
}
