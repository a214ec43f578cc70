//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestBikebinWithMySQL tests the bikebin CLI with a MySQL backend.
func TestBikebinWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "bikebin",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/bikebin?parseTime=true", host, port.Port())
	runStoreLifecycle(t, []string{"BIKEBIN_STORE_BACKEND=mysql", "BIKEBIN_STORE_DB_CONNECT=" + connStr})
}

// TestBikebinWithPostgres tests the bikebin CLI with a PostgreSQL backend.
func TestBikebinWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	runStoreLifecycle(t, []string{"BIKEBIN_STORE_BACKEND=postgresql", "BIKEBIN_STORE_DB_CONNECT=" + connStr})
}

// runStoreLifecycle migrates, aggregates, evaluates and clears against one backend.
func runStoreLifecycle(t *testing.T, env []string) {
	t.Helper()

	_, err := runBikebinCommand(t, env, "bins", "clear")
	require.NoError(t, err)

	out, err := runBikebinCommand(t, env, "bins", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "to version")

	raw := writeRawFixture(t)
	args := append(append([]string{"aggregate"}, fixtureArgs()...), raw)
	out, err = runBikebinCommand(t, env, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Bins emitted: 96 (stations: 2)")

	// Aggregating again replaces the stored window
	_, err = runBikebinCommand(t, env, args...)
	require.NoError(t, err)

	out, err = runBikebinCommand(t, env, "bins", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Bins: 96")

	args = append([]string{"evaluate", "--predictors", "last-value,historic-trend"}, fixtureArgs()...)
	out, err = runBikebinCommand(t, env, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Performance:")
	assert.Contains(t, out, "Last Value Predictor:")
	assert.Contains(t, out, "Historic Trend Predictor:")

	out, err = runBikebinCommand(t, env, "runs", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 1")
	assert.Contains(t, out, "Total Results: 2")

	_, err = runBikebinCommand(t, env, "bins", "clear")
	require.NoError(t, err)
}
