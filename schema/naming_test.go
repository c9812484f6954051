package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/relmap/schema"
)

func TestDefaultNamingStrategy(t *testing.T) {
	ns := schema.DefaultNamingStrategy{}
	assert.Equal(t, "post_categories_category", ns.JoinTableName("post", "category", "categories", "posts"))
	assert.Equal(t, "post_meta_tags_tag", ns.JoinTableName("post", "tag", "meta.tags", ""))
	assert.Equal(t, "postSlug", ns.JoinTableColumnName("post", "slug", ""))
	assert.Equal(t, "postCode", ns.JoinTableColumnName("post", "slug", "code"))
	assert.Equal(t, "tagLabel", ns.JoinTableInverseColumnName("tag", "label", ""))
	assert.Equal(t, "postSlug_1", ns.JoinTableColumnDuplicationPrefix("postSlug", 1))
	assert.Equal(t, "postSlug_2", ns.JoinTableColumnDuplicationPrefix("postSlug", 2))
}
