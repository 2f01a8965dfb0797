package gcsuploader

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Downloader reads statement files from GCS.
type Downloader struct {
	store blobStore
}

// NewDownloader creates a downloader using Application Default Credentials.
func NewDownloader(ctx context.Context) (*Downloader, error) {
	store, err := newGCSBlobStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewDownloader: %w", err)
	}
	return &Downloader{store: store}, nil
}

// Fetch downloads the object at a gs:// URI.
func (d *Downloader) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(gcsURI)
	if err != nil {
		return nil, err
	}
	data, err := d.store.Get(ctx, bucket, object)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}
	return data, nil
}

// Close releases the underlying storage client.
func (d *Downloader) Close() error {
	return d.store.Close()
}

// IsGCSURI reports whether s looks like gs://bucket/object.
func IsGCSURI(s string) bool {
	return strings.HasPrefix(s, "gs://")
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object.
func ParseGCSURI(gcsURI string) (bucket, object string, err error) {
	if !IsGCSURI(gcsURI) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}
	parts := strings.SplitN(strings.TrimPrefix(gcsURI, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}

// ExtractFilenameFromGCSURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/file.pdf" → "file.pdf"
func ExtractFilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}
