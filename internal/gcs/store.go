// Package gcs wraps Google Cloud Storage behind a small ObjectStore
// interface so components that archive sources or fetch mapping files can be
// tested with in-memory fakes.
package gcs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// ObjectStore is the minimal object-storage surface Sluice needs: write a
// text payload, read one back.
type ObjectStore interface {
	// Upload writes data to bucket/object with the given content type.
	Upload(ctx context.Context, bucket, object, contentType string, data []byte) error

	// Read returns the full content of bucket/object.
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

// Store is the GCS-backed ObjectStore.
type Store struct {
	client *storage.Client
}

// New creates a Store using application-default credentials.
func New(ctx context.Context) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Store{client: client}, nil
}

// Upload writes data to gs://bucket/object.
func (s *Store) Upload(ctx context.Context, bucket, object, contentType string, data []byte) error {
	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write gs://%s/%s: %w", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}

// Read returns the content of gs://bucket/object.
func (s *Store) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, object, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// ParseURI splits a gs://bucket/path/to/object URI into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	const scheme = "gs://"
	if !strings.HasPrefix(uri, scheme) {
		return "", "", fmt.Errorf("not a gs:// URI: %q", uri)
	}
	rest := strings.TrimPrefix(uri, scheme)
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in URI: %q", uri)
	}
	return bucket, object, nil
}

// JoinURI builds a gs:// URI from a bucket and path segments, skipping empty
// segments.
func JoinURI(bucket string, parts ...string) string {
	segs := make([]string, 0, len(parts)+1)
	segs = append(segs, "gs://"+bucket)
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			segs = append(segs, p)
		}
	}
	return strings.Join(segs, "/")
}
