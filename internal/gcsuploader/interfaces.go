package gcsuploader

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// blobStore is the subset of Cloud Storage the archiver needs.
type blobStore interface {
	Put(ctx context.Context, bucket, object, contentType string, data []byte) error
	Get(ctx context.Context, bucket, object string) ([]byte, error)
	Close() error
}

// gcsBlobStore implements blobStore on a storage.Client.
// It assumes Application Default Credentials are configured.
type gcsBlobStore struct {
	client *storage.Client
}

func newGCSBlobStore(ctx context.Context) (*gcsBlobStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &gcsBlobStore{client: client}, nil
}

func (s *gcsBlobStore) Put(ctx context.Context, bucket, object, contentType string, data []byte) error {
	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s/%s: %w", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload %s/%s: %w", bucket, object, err)
	}
	return nil
}

func (s *gcsBlobStore) Get(ctx context.Context, bucket, object string) ([]byte, error) {
	rc, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object reader %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, object, err)
	}
	return data, nil
}

func (s *gcsBlobStore) Close() error {
	return s.client.Close()
}
