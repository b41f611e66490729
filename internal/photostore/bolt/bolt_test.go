package bolt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/plantasking/internal/photostore"
)

func newTestStore(t *testing.T) (*BoltPhotoStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photos.bolt")
	store, err := NewBoltPhotoStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestBoltPhotoStoreSaveAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	imageData := []byte("fake gif data")

	key, err := store.Save(ctx, "plant", "image/gif", bytes.NewReader(imageData))
	require.NoError(t, err)
	assert.Equal(t, "plant_1.gif", key)

	reader, mimeType, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "image/gif", mimeType)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, imageData, data)
}

func TestBoltPhotoStoreSequentialKeys(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	a, err := store.Save(ctx, "plant", "image/jpeg", bytes.NewReader([]byte("a")))
	require.NoError(t, err)
	b, err := store.Save(ctx, "plant", "image/jpeg", bytes.NewReader([]byte("b")))
	require.NoError(t, err)

	assert.Equal(t, "plant_1.jpg", a)
	assert.Equal(t, "plant_2.jpg", b)
}

func TestBoltPhotoStorePersistsAcrossReopen(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	key, err := store.Save(ctx, "plant", "image/png", bytes.NewReader([]byte("png")))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewBoltPhotoStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	img, err := photostore.LoadImage(ctx, reopened, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), img.Data)
	assert.Equal(t, "image/png", img.MimeType)
}

func TestBoltPhotoStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	key, err := store.Save(ctx, "plant", "image/jpeg", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, key))

	_, _, err = store.Get(ctx, key)
	assert.True(t, errors.Is(err, photostore.ErrNotFound))
	assert.True(t, errors.Is(store.Delete(ctx, key), photostore.ErrNotFound))
}
