// Package bolt stores plant photos as values in a single bbolt database
// file, keyed by storage key.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/vbonduro/plantasking/internal/photostore"
	bolt "go.etcd.io/bbolt"
)

var photosBucket = []byte("photos")

type BoltPhotoStore struct {
	db *bolt.DB
}

// NewBoltPhotoStore opens (or creates with 0600 permissions) the database at
// path and makes sure the photos bucket exists.
func NewBoltPhotoStore(path string) (*BoltPhotoStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(photosBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create photos bucket: %w", err)
	}

	return &BoltPhotoStore{db: db}, nil
}

func (s *BoltPhotoStore) Close() error {
	return s.db.Close()
}

// Save stores the photo under "<prefix>_<seq><ext>", where seq is the
// bucket's next sequence number and ext encodes mimeType.
func (s *BoltPhotoStore) Save(_ context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}

	var key string
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(photosBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}
		key = fmt.Sprintf("%s_%d%s", prefix, seq, photostore.MimeTypeToExt(mimeType))
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return "", fmt.Errorf("failed to save photo: %w", err)
	}
	return key, nil
}

func (s *BoltPhotoStore) Get(_ context.Context, storageKey string) (io.ReadCloser, string, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(photosBucket).Get([]byte(storageKey))
		if v == nil {
			return photostore.ErrNotFound
		}
		// v is only valid for the life of the transaction.
		data = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return io.NopCloser(bytes.NewReader(data)), photostore.ExtToMimeType(storageKey), nil
}

func (s *BoltPhotoStore) Delete(_ context.Context, storageKey string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(photosBucket)
		if b.Get([]byte(storageKey)) == nil {
			return photostore.ErrNotFound
		}
		return b.Delete([]byte(storageKey))
	})
}
