//go:build gcp

package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
)

// GCSStore is a Store backed by Google Cloud Storage.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSConfig configures a GCSStore.
type GCSConfig struct {
	Bucket string
	Prefix string
}

// NewGCSStore constructs a GCSStore using application default credentials.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("blobstore: new gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *GCSStore) object(cid atomtypes.Cid32) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.prefix + blobKey(cid))
}

// Put uploads payload, skipping the upload if the object already exists.
func (s *GCSStore) Put(ctx context.Context, cid atomtypes.Cid32, payload []byte) error {
	has, err := s.Has(ctx, cid)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	w := s.object(cid).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return fmt.Errorf("blobstore: gcs write %s: %w", cid, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("blobstore: gcs close %s: %w", cid, err)
	}
	return nil
}

// Get downloads the payload for cid.
func (s *GCSStore) Get(ctx context.Context, cid atomtypes.Cid32) ([]byte, error) {
	r, err := s.object(cid).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("blobstore: gcs get %s: %w", cid, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Has reports whether a blob for cid is already stored.
func (s *GCSStore) Has(ctx context.Context, cid atomtypes.Cid32) (bool, error) {
	_, err := s.object(cid).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("blobstore: gcs attrs %s: %w", cid, err)
	}
	return true, nil
}

// Close releases the underlying GCS client.
func (s *GCSStore) Close() error { return s.client.Close() }
