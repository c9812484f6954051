package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/schema"
)

var (
	postgres  = dialect.MustLookup(dialect.Postgres)
	mysql     = dialect.MustLookup(dialect.MySQL)
	sqlite    = dialect.MustLookup(dialect.SQLite)
	sqlserver = dialect.MustLookup(dialect.SQLServer)
	sap       = dialect.MustLookup(dialect.SAP)
)

func TestUpdateCompile(t *testing.T) {
	tests := []struct {
		name    string
		builder *UpdateBuilder
		dialect *dialect.Capability
		query   string
		args    []any
	}{
		{
			name: "VersionedEntity",
			builder: UpdateOf(userMeta()).
				Set(map[string]any{"name": "Ann"}).
				WhereEntity(schema.Record{"id": 1, "name": "A", "version": 3}).
				Returning("id", "version"),
			dialect: postgres,
			query:   `UPDATE "user" SET "name" = $1, "version" = "version" + 1 WHERE "id" = $2 RETURNING "id", "version"`,
			args:    []any{"Ann", 1},
		},
		{
			name:    "VersionOnly",
			builder: UpdateOf(userMeta()).Where(EQ("id", 1)),
			dialect: postgres,
			query:   `UPDATE "user" SET "version" = "version" + 1 WHERE "id" = $1`,
			args:    []any{1},
		},
		{
			name: "EveryValueKind",
			builder: UpdateOf(postMeta()).
				SetValue("title", "Hello").
				SetValue("published", true).
				SetValue("tags", []string{"go", "sql"}).
				SetValue("location", "POINT(1 2)").
				SetValue("counters", schema.Record{"likes": 1, "views": 2}).
				SetValue("author", schema.Record{"id": 7, "name": "Ann"}).
				SetValue("slug", "ignored").
				Where(EQ("id", 5)),
			dialect: mysql,
			query:   "UPDATE `posts` SET `title` = ?, `published` = ?, `tags` = ?, `location` = ST_GeomFromText(?, 4326), `likes` = ?, `views` = ?, `authorId` = ?, `updatedAt` = CURRENT_TIMESTAMP WHERE `id` = ?",
			args:    []any{"Hello", int64(1), "go,sql", "POINT(1 2)", 1, 2, 7, 5},
		},
		{
			name:    "LegacySpatial",
			builder: UpdateOf(postMeta()).SetValue("location", "POINT(1 2)"),
			dialect: mysql.WithLegacySpatial(),
			query:   "UPDATE `posts` SET `location` = GeomFromText(?, 4326), `updatedAt` = CURRENT_TIMESTAMP",
			args:    []any{"POINT(1 2)"},
		},
		{
			name:    "PostGISSpatial",
			builder: UpdateOf(postMeta()).SetValue("location", `{"type":"Point","coordinates":[1,2]}`),
			dialect: postgres,
			query:   `UPDATE "posts" SET "location" = ST_SetSRID(ST_GeomFromGeoJSON($1), 4326)::geometry, "updatedAt" = CURRENT_TIMESTAMP`,
			args:    []any{`{"type":"Point","coordinates":[1,2]}`},
		},
		{
			name:    "RelationPath",
			builder: UpdateOf(postMeta()).SetValue("writer", schema.Record{"id": 9}),
			dialect: postgres,
			query:   `UPDATE "posts" SET "authorId" = $1, "updatedAt" = CURRENT_TIMESTAMP`,
			args:    []any{9},
		},
		{
			name: "DuplicateColumn",
			builder: UpdateOf(postMeta()).
				SetValue("author", schema.Record{"id": 7}).
				SetValue("writer", schema.Record{"id": 9}),
			dialect: postgres,
			query:   `UPDATE "posts" SET "authorId" = $1, "updatedAt" = CURRENT_TIMESTAMP`,
			args:    []any{7},
		},
		{
			name:    "ExplicitVersion",
			builder: UpdateOf(userMeta()).SetValue("version", 10),
			dialect: postgres,
			query:   `UPDATE "user" SET "version" = $1`,
			args:    []any{10},
		},
		{
			name: "PropertyPathsInClauses",
			builder: UpdateOf(postMeta()).
				SetValue("title", "x").
				Where(GT("counters.likes", 10)).
				OrderBy(Desc("counters.views")),
			dialect: postgres,
			query:   `UPDATE "posts" SET "title" = $1, "updatedAt" = CURRENT_TIMESTAMP WHERE "likes" > $2 ORDER BY "views" DESC`,
			args:    []any{"x", 10},
		},
		{
			name: "OutputBatch",
			builder: UpdateOf(userMeta()).
				SetValue("name", "Ann").
				Where(EQ("id", 1)).
				Returning("id", "version"),
			dialect: sqlserver,
			query: "DECLARE @OutputTable TABLE (\"id\" int, \"version\" int);\n\n" +
				`UPDATE "user" SET "name" = @p1, "version" = "version" + 1 OUTPUT INSERTED."id", INSERTED."version" INTO @OutputTable WHERE "id" = @p2;` + "\n\n" +
				"SELECT * FROM @OutputTable",
			args: []any{"Ann", 1},
		},
		{
			name:    "OutputWithoutMetadata",
			builder: Update("users").SetValue("name", "x").Where(EQ("id", 1)).Returning("id"),
			dialect: sqlserver,
			query:   `UPDATE "users" SET "name" = @p1 OUTPUT INSERTED."id" WHERE "id" = @p2`,
			args:    []any{"x", 1},
		},
		{
			name:    "NullLiteral",
			builder: Update("users").SetValue("deleted_at", nil).SetValue("name", "x"),
			dialect: sap,
			query:   `UPDATE "users" SET "deleted_at" = NULL, "name" = ?`,
			args:    []any{"x"},
		},
		{
			name:    "NullLiteralWithMetadata",
			builder: UpdateOf(userMeta()).SetValue("name", nil),
			dialect: sap,
			query:   `UPDATE "user" SET "name" = NULL, "version" = "version" + 1`,
		},
		{
			name:    "NullBound",
			builder: Update("users").SetValue("deleted_at", nil),
			dialect: postgres,
			query:   `UPDATE "users" SET "deleted_at" = $1`,
			args:    []any{nil},
		},
		{
			name: "OrderAndLimit",
			builder: Update("users").
				SetValue("a", 1).
				OrderBy(Asc("name")).
				AddOrderBy(Desc("created")).
				Limit(5),
			dialect: mysql,
			query:   "UPDATE `users` SET `a` = ? ORDER BY `name` ASC, `created` DESC LIMIT 5",
			args:    []any{1},
		},
		{
			name:    "NonPositiveLimit",
			builder: Update("users").SetValue("a", 1).Limit(5).Limit(0),
			dialect: postgres,
			query:   `UPDATE "users" SET "a" = $1`,
			args:    []any{1},
		},
		{
			name:    "RawExpressions",
			builder: Update("counters").SetValue("hits", RawExpr("hits + 1")).SetValue("seen", func() string { return "CURRENT_TIMESTAMP" }),
			dialect: postgres,
			query:   `UPDATE "counters" SET "hits" = hits + 1, "seen" = CURRENT_TIMESTAMP`,
		},
		{
			name:    "SortedMap",
			builder: Update("users").Set(map[string]any{"b": 2, "a": 1}),
			dialect: sqlite,
			query:   `UPDATE "users" SET "a" = ?, "b" = ?`,
			args:    []any{1, 2},
		},
		{
			name: "WhereComposition",
			builder: Update("users").
				SetValue("a", 1).
				Where(EQ("x", 1)).
				OrWhere(EQ("y", 2)).
				AndWhere(NotNull("z")),
			dialect: sqlite,
			query:   `UPDATE "users" SET "a" = ? WHERE ("x" = ? OR "y" = ?) AND "z" IS NOT NULL`,
			args:    []any{1, 1, 2},
		},
		{
			name:    "Comment",
			builder: Update("users").SetValue("a", 1).Comment("nightly */ sync"),
			dialect: sqlite,
			query:   `/* nightly  sync */ UPDATE "users" SET "a" = ?`,
			args:    []any{1},
		},
		{
			name:    "ReservedWords",
			builder: Update("order").SetValue("group", "b").Where(EQ("user", 1)),
			dialect: sqlserver,
			query:   `UPDATE "order" SET "group" = @p1 WHERE "user" = @p2`,
			args:    []any{"b", 1},
		},
		{
			name:    "QuoteComplexIdentifiers",
			builder: Update("order items").SetValue("unit price", 1),
			dialect: mysql,
			query:   "UPDATE `order items` SET `unit price` = ?",
			args:    []any{1},
		},
		{
			name:    "OutputAlias",
			builder: Update("users").SetValue("a", 1).Output("id"),
			dialect: postgres,
			query:   `UPDATE "users" SET "a" = $1 RETURNING "id"`,
			args:    []any{1},
		},
		{
			name:    "InIDs",
			builder: UpdateOf(userMeta()).SetValue("name", "x").WhereInIDs(1, 2, 3),
			dialect: postgres,
			query:   `UPDATE "user" SET "name" = $1, "version" = "version" + 1 WHERE "id" IN ($2, $3, $4)`,
			args:    []any{"x", 1, 2, 3},
		},
		{
			name: "CompositeIDs",
			builder: UpdateOf(memberMeta()).
				SetValue("role", "admin").
				WhereInIDs(map[string]any{"orgId": 1, "userId": 2}, map[string]any{"orgId": 1, "userId": 3}),
			dialect: postgres,
			query:   `UPDATE "members" SET "role" = $1 WHERE ("org_id" = $2 AND "user_id" = $3) OR ("org_id" = $4 AND "user_id" = $5)`,
			args:    []any{"admin", 1, 2, 1, 3},
		},
		{
			name: "QualifiedTable",
			builder: UpdateOf(&schema.EntityMetadata{
				Name:      "Audit",
				TableName: "audit",
				Schema:    "ops",
				Columns:   userMeta().Columns[1:2],
			}).SetValue("name", "x"),
			dialect: postgres,
			query:   `UPDATE "ops"."audit" SET "name" = $1`,
			args:    []any{"x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := tt.builder.Query(tt.dialect)
			require.NoError(t, err)
			assert.Equal(t, tt.query, query)
			if tt.args == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

func TestUpdateCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder *UpdateBuilder
		dialect *dialect.Capability
		check   func(*testing.T, error)
	}{
		{
			name:    "NoValues",
			builder: Update("users"),
			dialect: postgres,
			check: func(t *testing.T, err error) {
				assert.True(t, relmap.IsValidationError(err))
				assert.ErrorIs(t, err, relmap.ErrNoValues)
			},
		},
		{
			name:    "OnlyNoUpdateColumns",
			builder: UpdateOf(postMeta()).SetValue("slug", "x"),
			dialect: postgres,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, relmap.ErrNoValues)
			},
		},
		{
			name:    "LimitUnsupported",
			builder: Update("users").SetValue("a", 1).Limit(1),
			dialect: postgres,
			check: func(t *testing.T, err error) {
				assert.True(t, relmap.IsUnsupportedFeatureError(err))
				assert.Contains(t, err.Error(), "LIMIT")
			},
		},
		{
			name:    "ReturningUnsupported",
			builder: Update("users").SetValue("a", 1).Returning("id"),
			dialect: mysql,
			check: func(t *testing.T, err error) {
				assert.True(t, relmap.IsUnsupportedFeatureError(err))
				assert.Contains(t, err.Error(), "RETURNING")
			},
		},
		{
			name:    "UnknownSetPath",
			builder: UpdateOf(userMeta()).SetValue("nickname", "x"),
			dialect: postgres,
			check: func(t *testing.T, err error) {
				assert.True(t, relmap.IsEntityColumnNotFound(err))
				assert.Contains(t, err.Error(), "nickname")
			},
		},
		{
			name:    "UnknownReturningPath",
			builder: UpdateOf(userMeta()).SetValue("name", "x").Returning("nickname"),
			dialect: postgres,
			check: func(t *testing.T, err error) {
				assert.True(t, relmap.IsEntityColumnNotFound(err))
			},
		},
		{
			name:    "EntityWithoutIDs",
			builder: UpdateOf(userMeta()).SetValue("name", "x").WhereEntity(schema.Record{"name": "a"}),
			dialect: postgres,
			check: func(t *testing.T, err error) {
				assert.True(t, relmap.IsValidationError(err))
				assert.ErrorIs(t, err, relmap.ErrMissingIDs)
			},
		},
		{
			name:    "EntityWithoutMetadata",
			builder: Update("users").SetValue("name", "x").WhereEntity(schema.Record{"id": 1}),
			dialect: postgres,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, relmap.ErrNoMetadata)
			},
		},
		{
			name:    "ScalarCompositeID",
			builder: UpdateOf(memberMeta()).SetValue("role", "x").WhereInIDs(1),
			dialect: postgres,
			check: func(t *testing.T, err error) {
				assert.True(t, relmap.IsValidationError(err))
			},
		},
		{
			name:    "UnencodableValue",
			builder: UpdateOf(postMeta()).SetValue("location", make(chan int)),
			dialect: postgres,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "location")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Compile(tt.dialect)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestUpdateStatement(t *testing.T) {
	u := UpdateOf(postMeta()).SetValue("title", "x").Returning("title")
	st, err := u.compile(postgres, u.refreshColumns())
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "id", "wordCount", "updatedAt"}, st.Returning)
	require.Len(t, st.Columns, 4)
	assert.Equal(t, "updatedAt", st.Columns[3].DatabaseName)
	assert.Equal(t, `UPDATE "posts" SET "title" = $1, "updatedAt" = CURRENT_TIMESTAMP RETURNING "title", "id", "wordCount", "updatedAt"`, st.Query)
}

func TestUpdateValues(t *testing.T) {
	u := Update("users").Set(map[string]any{"a": 1}).SetValue("b", "x")
	assert.Equal(t, map[string]any{"a": 1, "b": "x"}, u.Values())
	assert.Nil(t, u.Metadata())

	meta := userMeta()
	assert.Same(t, meta, UpdateOf(meta).Metadata())
}
