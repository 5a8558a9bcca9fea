package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx-calendar-lab/internal/storage"
)

func TestCheckpointStore_SetAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCheckpointStore(pool)

	cp := &storage.IngestCheckpoint{
		Source:     "csv",
		Location:   "data/calendar_2024.csv",
		ContentSHA: "abc",
		Rows:       120,
		UpdatedAt:  time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Set(ctx, cp))

	got, err := store.Get(ctx, "csv", "data/calendar_2024.csv")
	require.NoError(t, err)
	assert.Equal(t, cp.ContentSHA, got.ContentSHA)
	assert.Equal(t, 120, got.Rows)
	assert.True(t, cp.UpdatedAt.Equal(got.UpdatedAt))
}

func TestCheckpointStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewCheckpointStore(pool).Get(context.Background(), "csv", "missing.csv")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCheckpointStore_SetUpsert(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCheckpointStore(pool)
	now := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Set(ctx, &storage.IngestCheckpoint{Source: "ff_html", Location: "b.html", ContentSHA: "1", UpdatedAt: now}))
	require.NoError(t, store.Set(ctx, &storage.IngestCheckpoint{Source: "csv", Location: "a.csv", ContentSHA: "1", UpdatedAt: now}))
	require.NoError(t, store.Set(ctx, &storage.IngestCheckpoint{Source: "csv", Location: "a.csv", ContentSHA: "2", Rows: 5, UpdatedAt: now.Add(time.Hour)}))

	got, err := store.Get(ctx, "csv", "a.csv")
	require.NoError(t, err)
	assert.Equal(t, "2", got.ContentSHA)
	assert.Equal(t, 5, got.Rows)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "csv", all[0].Source)
	assert.Equal(t, "ff_html", all[1].Source)

	assert.ErrorIs(t, store.Set(ctx, &storage.IngestCheckpoint{Source: "csv"}), storage.ErrInvalidInput)
}
