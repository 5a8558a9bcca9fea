package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"fx-calendar-lab/internal/storage/migrations"
)

const testDatabase = "calendar"

// setupTestDB starts a disposable ClickHouse, creates the test database,
// applies the embedded migrations and returns the connection with its cleanup.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test: needs docker")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.8-alpine",
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"CLICKHOUSE_USER":     "default",
				"CLICKHOUSE_PASSWORD": "",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready for connections").WithStartupTimeout(90*time.Second),
				wait.ForListeningPort("9000/tcp"),
			),
		},
		Started: true,
	})
	require.NoError(t, err, "start clickhouse container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)
	dsn := fmt.Sprintf("clickhouse://default@%s:%s/%s", host, port.Port(), testDatabase)

	admin, err := NewConnWithDatabase(ctx, dsn, "")
	require.NoError(t, err)
	require.NoError(t, migrations.EnsureDatabase(ctx, admin, testDatabase))
	_ = admin.Close()

	conn, err := NewConn(ctx, dsn)
	require.NoError(t, err)

	applied, err := migrations.ApplyClickhouse(ctx, conn)
	require.NoError(t, err, "apply migrations")
	require.NotEmpty(t, applied)

	return conn, func() {
		_ = conn.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate clickhouse container: %v", err)
		}
	}
}

func TestApplyClickhouse_Idempotent(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	applied, err := migrations.ApplyClickhouse(context.Background(), conn)
	require.NoError(t, err)
	require.Empty(t, applied)
}

func ptr[T any](v T) *T {
	return &v
}
