// Package gcs archives import payloads to a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// Config names the target bucket.
type Config struct {
	Bucket string
}

// BlobStore implements blob.Store on a bucket handle.
type BlobStore struct {
	bucket *storage.BucketHandle
	name   string
}

// New creates a GCS-backed blob store.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &BlobStore{
		bucket: client.Bucket(cfg.Bucket),
		name:   cfg.Bucket,
	}, nil
}

// PutObject streams the payload into the bucket and returns its gs:// URI.
// The write is atomic: a failed copy leaves no partial object behind.
func (s *BlobStore) PutObject(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("object path is required")
	}
	w := s.bucket.Object(path).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		// Close aborts the upload when the copy failed.
		if closeErr := w.Close(); closeErr != nil {
			return "", fmt.Errorf("write payload: %w (abort: %v)", err, closeErr)
		}
		return "", fmt.Errorf("write payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize payload: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.name, path), nil
}
