package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/plantasking/internal/photostore"
)

func newTestStore(t *testing.T) *LocalPhotoStore {
	t.Helper()
	store, err := NewLocalPhotoStore(t.TempDir(), slog.Default())
	require.NoError(t, err)
	return store
}

func TestLocalPhotoStoreSaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	imageData := []byte("fake png data")

	key, err := store.Save(ctx, "plant", "image/png", bytes.NewReader(imageData))
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	assert.Contains(t, key, ".png")

	reader, mimeType, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "image/png", mimeType)

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, imageData, data)
}

func TestLocalPhotoStoreKeysAreUnique(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, err := store.Save(ctx, "plant", "image/jpeg", bytes.NewReader([]byte("a")))
	require.NoError(t, err)
	b, err := store.Save(ctx, "plant", "image/jpeg", bytes.NewReader([]byte("b")))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalPhotoStoreLoadImage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.Save(ctx, "plant", "image/webp", bytes.NewReader([]byte("RIFFxxxxWEBP")))
	require.NoError(t, err)

	img, err := photostore.LoadImage(ctx, store, key)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", img.MimeType)
	assert.Equal(t, []byte("RIFFxxxxWEBP"), img.Data)
}

func TestLocalPhotoStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.Save(ctx, "plant", "image/jpeg", bytes.NewReader([]byte("test data")))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, key))

	_, _, err = store.Get(ctx, key)
	assert.True(t, errors.Is(err, photostore.ErrNotFound))

	assert.True(t, errors.Is(store.Delete(ctx, key), photostore.ErrNotFound))
}

func TestLocalPhotoStoreNotFound(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Get(context.Background(), "nonexistent.jpg")
	assert.True(t, errors.Is(err, photostore.ErrNotFound))
}

func TestLocalPhotoStorePathTraversal(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Get(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, photostore.ErrNotFound))
}

func TestLocalPhotoStoreRejectsNestedKeys(t *testing.T) {
	store := newTestStore(t)

	for _, key := range []string{"", "a/b.jpg", "/etc/passwd", ".."} {
		err := store.Delete(context.Background(), key)
		assert.ErrorIs(t, err, errInvalidKey, key)
	}
}

func TestLocalPhotoStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalPhotoStore(dir, slog.Default())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "plant", "image/jpeg", failingReader{})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalPhotoStoreSaveCancelled(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, "plant", "image/jpeg", bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, context.Canceled)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }
