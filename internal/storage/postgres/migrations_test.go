package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx-calendar-lab/internal/storage/migrations"
)

func TestApplyPostgres_Idempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	applied, err := migrations.ApplyPostgres(ctx, pool)
	require.NoError(t, err)
	assert.Empty(t, applied, "second run applies nothing")

	all, err := migrations.Load(migrations.Postgres)
	require.NoError(t, err)

	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, len(all), n)
}

func TestApplyPostgres_ChecksumMismatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := pool.Exec(ctx, `UPDATE schema_migrations SET checksum = 'edited' WHERE name = '001_events.sql'`)
	require.NoError(t, err)

	_, err = migrations.ApplyPostgres(ctx, pool)
	assert.ErrorIs(t, err, migrations.ErrChecksumMismatch)
}
