package domain

import (
	"context"
	"io"
	"time"
)

// BlobWriter uploads objects to blob storage.
type BlobWriter interface {
	// Put uploads data in a single request.
	Put(ctx context.Context, path string, data io.Reader, contentType string) error

	// PutMultipart uploads data in concurrent parts of partSize bytes.
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// BlobInfo describes one stored object.
type BlobInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// BlobReader retrieves and inspects objects in blob storage.
type BlobReader interface {
	// Get returns the object body. The caller closes it. Returns
	// ErrNotFound when the object does not exist.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// List returns metadata for every object under the prefix.
	List(ctx context.Context, prefix string) ([]BlobInfo, error)

	// Exists reports whether an object exists at the path.
	Exists(ctx context.Context, path string) (bool, error)
}

// Archiver moves old journal entries out of the primary store into blob
// storage. Deletion from the primary store is a separate explicit step.
type Archiver interface {
	// ArchiveJournal uploads all journal entries created before the cutoff
	// and returns the count archived.
	ArchiveJournal(ctx context.Context, before time.Time) (int64, error)

	// PruneJournal deletes journal entries created before the cutoff,
	// refusing unless the corresponding archive object exists. It returns
	// the number deleted.
	PruneJournal(ctx context.Context, before time.Time) (int64, error)
}
