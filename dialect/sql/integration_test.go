//go:build integration

package sql

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/syssam/relmap/dialect/sql/sqlgraph"
	"github.com/syssam/relmap/schema"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "relmap",
				"POSTGRES_USER":     "relmap",
				"POSTGRES_PASSWORD": "relmap",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://relmap:relmap@%s:%s/relmap?sslmode=disable", host, port.Port())
}

func TestPostgresUpdate(t *testing.T) {
	drv, err := Open("pgx", startPostgres(t))
	require.NoError(t, err)
	defer drv.Close()
	ctx := context.Background()

	for _, stmt := range []string{
		`CREATE TABLE users (id bigint PRIMARY KEY, name text NOT NULL UNIQUE, version int NOT NULL, "updatedAt" timestamptz)`,
		`INSERT INTO users (id, name, version) VALUES (1, 'A', 3), (2, 'B', 1)`,
	} {
		require.NoError(t, drv.Exec(ctx, stmt, []any{}, nil))
	}

	debug := NewDebugDriver(drv, DebugWithLogger(zaptest.NewLogger(t)))
	exec := NewExecutor(debug, postgres, WithLogger(zaptest.NewLogger(t)))

	ent := schema.Record{"id": int64(1), "name": "A", "version": int64(3)}
	res, err := exec.Exec(ctx, UpdateOf(usersMeta()).SetValue("name", "Ann").WhereEntity(ent))
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Affected)
	assert.EqualValues(t, 4, ent["version"])
	assert.IsType(t, time.Time{}, ent["updatedAt"])

	_, err = exec.Exec(ctx, UpdateOf(usersMeta()).SetValue("name", "Ann").Where(EQ("id", 2)))
	require.Error(t, err)
	assert.True(t, sqlgraph.IsUniqueConstraintError(err))
}
