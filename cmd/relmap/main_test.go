package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/syssam/relmap/dialect/sql"
)

const declarations = `
entities:
  - name: User
    table: users
    columns:
      - {name: id, type: int, primary: true}
      - {name: name, type: string}
      - {name: version, type: int, mode: version}
    relations:
      - name: tags
        kind: many-to-many
        target: Tag
        join_table:
          name: user_tags
          join_columns: [{name: user_id}]
          inverse_join_columns: [{name: tag_id, references: id}]
  - name: Tag
    table: tags
    columns:
      - {name: id, type: int, primary: true}
  - name: Member
    table: members
    columns:
      - {name: orgId, column: org_id, type: int, primary: true}
      - {name: userId, column: user_id, type: int, primary: true}
      - {name: role, type: string}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(declarations), 0o600))
	t.Setenv("RELMAP_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--schema", path}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestJunctionCmd(t *testing.T) {
	out, err := run(t, "junction")
	require.NoError(t, err)

	var views []junctionView
	require.NoError(t, yaml.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	j := views[0]
	assert.Equal(t, "user_tags", j.Table)
	assert.Equal(t, "User.tags", j.Relation)
	require.Len(t, j.Columns, 2)
	assert.Equal(t, "user_id", j.Columns[0].Name)
	assert.Equal(t, "User.id", j.Columns[0].References)
	assert.True(t, j.Columns[0].Primary)
	assert.Equal(t, "tag_id", j.Columns[1].Name)
	require.Len(t, j.ForeignKeys, 2)
	assert.Equal(t, "users", j.ForeignKeys[0].Table)
	assert.Equal(t, []string{"id"}, j.ForeignKeys[0].References)
}

func TestUpdateCmd(t *testing.T) {
	t.Run("Postgres", func(t *testing.T) {
		out, err := run(t, "update", "User", "--set", "name=Ann", "--id", "1", "--returning", "version")
		require.NoError(t, err)
		var st statementView
		require.NoError(t, yaml.Unmarshal([]byte(out), &st))
		assert.Equal(t, `UPDATE "users" SET "name" = $1, "version" = "version" + 1 WHERE "id" = $2 RETURNING "version"`, st.Query)
		assert.Equal(t, []any{"Ann", 1}, st.Args)
	})
	t.Run("CompositeKey", func(t *testing.T) {
		t.Setenv("RELMAP_DIALECT", "mysql")
		out, err := run(t, "update", "Member", "--set", "role=admin", "--id", "orgId=1,userId=2", "--limit", "1")
		require.NoError(t, err)
		var st statementView
		require.NoError(t, yaml.Unmarshal([]byte(out), &st))
		assert.Equal(t, "UPDATE `members` SET `role` = ? WHERE `org_id` = ? AND `user_id` = ? LIMIT 1", st.Query)
		assert.Equal(t, []any{"admin", 1, 2}, st.Args)
	})
	t.Run("UnknownEntity", func(t *testing.T) {
		_, err := run(t, "update", "Nope", "--set", "a=1")
		assert.EqualError(t, err, `unknown entity "Nope"`)
	})
	t.Run("UnknownProperty", func(t *testing.T) {
		_, err := run(t, "update", "User", "--set", "nickname=x")
		assert.ErrorContains(t, err, "nickname")
	})
	t.Run("ExecWithoutDSN", func(t *testing.T) {
		t.Setenv("RELMAP_DSN", "")
		_, err := run(t, "update", "User", "--set", "name=x", "--exec")
		assert.EqualError(t, err, "RELMAP_DSN is not set")
	})
}

func TestUpdateCmdExec(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "relmap.db")
	drv, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	ctx := context.Background()
	for _, stmt := range []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, version INTEGER NOT NULL)`,
		`INSERT INTO users (id, name, version) VALUES (1, 'A', 3)`,
	} {
		require.NoError(t, drv.Exec(ctx, stmt, []any{}, nil))
	}
	require.NoError(t, drv.Close())

	t.Setenv("RELMAP_DIALECT", "sqlite")
	t.Setenv("RELMAP_DSN", dsn)
	out, err := run(t, "update", "User", "--set", "name=Ann", "--id", "1", "--returning", "version", "--exec")
	require.NoError(t, err)

	var res resultView
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	assert.EqualValues(t, 1, res.Affected)
	require.Len(t, res.Returned, 1)
	assert.EqualValues(t, 4, res.Returned[0]["version"])
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	id, err = parseID("orgId=1,userId=abc")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"orgId": 1, "userId": "abc"}, id)

	_, err = parseID("orgId=1,=2")
	assert.Error(t, err)
	_, err = parseScalar("[1, 2]")
	assert.ErrorContains(t, err, "not a scalar")

	v, err := parseScalar("null")
	require.NoError(t, err)
	assert.Nil(t, v)
}
