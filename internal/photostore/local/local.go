package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/vbonduro/plantasking/internal/photostore"
)

var errInvalidKey = errors.New("invalid storage key")

// LocalPhotoStore keeps each plant photo as a file directly under dir. Keys
// are bare file names.
type LocalPhotoStore struct {
	dir    string
	logger *slog.Logger
}

func NewLocalPhotoStore(dir string, logger *slog.Logger) (*LocalPhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &LocalPhotoStore{dir: dir, logger: logger.With("module", "photostore/local")}, nil
}

// Save streams r into a temporary file and renames it into place, so a
// failed upload never leaves a half-written photo behind a valid key.
func (s *LocalPhotoStore) Save(ctx context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	discard := func(stage string) {
		_ = tmp.Close()
		if rerr := os.Remove(tmp.Name()); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			s.logger.Error("failed to remove temp file", "stage", stage, "path", tmp.Name(), "error", rerr)
		}
	}

	if _, err := io.Copy(tmp, r); err != nil {
		discard("write")
		return "", fmt.Errorf("failed to write photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		discard("close")
		return "", fmt.Errorf("failed to close photo: %w", err)
	}

	key := prefix + "_" + uuid.NewString() + photostore.MimeTypeToExt(mimeType)
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, key)); err != nil {
		discard("rename")
		return "", fmt.Errorf("failed to store photo: %w", err)
	}
	s.logger.Debug("photo saved", "key", key)
	return key, nil
}

func (s *LocalPhotoStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, "", photostore.ErrNotFound
	case err != nil:
		return nil, "", fmt.Errorf("failed to open photo: %w", err)
	}
	return f, photostore.ExtToMimeType(key), nil
}

func (s *LocalPhotoStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return photostore.ErrNotFound
	case err != nil:
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}

// path maps key onto a file inside dir. Keys that are not a single local
// file name, such as "../x" or "a/b", are rejected.
func (s *LocalPhotoStore) path(key string) (string, error) {
	if !filepath.IsLocal(key) || filepath.Base(key) != key {
		return "", fmt.Errorf("%w: %q", errInvalidKey, key)
	}
	return filepath.Join(s.dir, key), nil
}
