package gcsuploader

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/dvloznov/statement-insights/internal/logger"
	"golang.org/x/sync/errgroup"
)

// uploadTimeout bounds the upload of a whole document set.
const uploadTimeout = 2 * time.Minute

// maxConcurrentUploads limits parallel object writes per run.
const maxConcurrentUploads = 4

// Archiver copies uploaded statements to a GCS bucket, one folder per run.
type Archiver struct {
	store  blobStore
	bucket string
	prefix string
}

// NewArchiver creates an archiver writing to gs://bucket/prefix/.
func NewArchiver(ctx context.Context, bucket, prefix string) (*Archiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewArchiver: bucket is required")
	}
	store, err := newGCSBlobStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewArchiver: %w", err)
	}
	return newArchiver(store, bucket, prefix), nil
}

func newArchiver(store blobStore, bucket, prefix string) *Archiver {
	return &Archiver{store: store, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// ArchiveDocuments uploads docs concurrently and returns their gs:// URIs
// in document order.
func (a *Archiver) ArchiveDocuments(ctx context.Context, runID string, docs []domain.Document) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	uris := make([]string, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUploads)

	for i, doc := range docs {
		object := ObjectName(a.prefix, runID, i+1, doc.Name)
		uris[i] = fmt.Sprintf("gs://%s/%s", a.bucket, object)
		g.Go(func() error {
			return a.store.Put(gctx, a.bucket, object, doc.MIMEType, doc.Data)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ArchiveDocuments: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("bucket", a.bucket).
		Int("documents", len(docs)).
		Msg("Archived documents")
	return uris, nil
}

// Close releases the underlying storage client.
func (a *Archiver) Close() error {
	return a.store.Close()
}

var unsafeObjectChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectName builds the object path for the index-th document (1-based) of
// a run: [prefix/]runID/NN-name.
func ObjectName(prefix, runID string, index int, name string) string {
	base := unsafeObjectChars.ReplaceAllString(path.Base(name), "_")
	if base == "" || base == "." || base == "_" {
		base = "document"
	}
	return path.Join(prefix, runID, fmt.Sprintf("%02d-%s", index, base))
}
