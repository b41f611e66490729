package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/plantasking/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestPlantStoreCreate(t *testing.T) {
	store := NewPlantStore(openTestDB(t))
	ctx := context.Background()

	plant, err := store.Create(ctx, "plant/abc.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.NotZero(t, plant.ID)
	assert.Equal(t, "plant/abc.jpg", plant.StorageKey)
	assert.Equal(t, "image/jpeg", plant.MimeType)
	assert.False(t, plant.CapturedAt.IsZero())
}

func TestPlantStoreGetByID(t *testing.T) {
	store := NewPlantStore(openTestDB(t))
	ctx := context.Background()

	created, err := store.Create(ctx, "plant/fern.png", "image/png")
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)
	assert.Equal(t, created.StorageKey, retrieved.StorageKey)
}

func TestPlantStoreGetByID_NotFound(t *testing.T) {
	store := NewPlantStore(openTestDB(t))

	plant, err := store.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, plant)
}

func TestPlantStoreList(t *testing.T) {
	store := NewPlantStore(openTestDB(t))
	ctx := context.Background()

	_, err := store.Create(ctx, "plant/first.jpg", "image/jpeg")
	require.NoError(t, err)
	_, err = store.Create(ctx, "plant/second.jpg", "image/jpeg")
	require.NoError(t, err)

	plants, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, plants, 2)
	assert.Equal(t, "plant/second.jpg", plants[0].StorageKey)
	assert.Equal(t, "plant/first.jpg", plants[1].StorageKey)
}

func TestPlantStoreDelete(t *testing.T) {
	store := NewPlantStore(openTestDB(t))
	ctx := context.Background()

	created, err := store.Create(ctx, "plant/tmp.jpg", "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.ID))

	retrieved, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestPlantStoreDelete_NotFound(t *testing.T) {
	store := NewPlantStore(openTestDB(t))

	err := store.Delete(context.Background(), 42)
	assert.True(t, errors.Is(err, ErrNotFound))
}
