package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// JournalArchiver implements domain.Archiver by querying the journal store
// for old entries, serializing them to JSONL, and uploading the result to
// S3. Archive objects are partitioned by the year-month of the cutoff:
//
//	archive/journal/2026-08.jsonl
//
// Deletion of the archived entries from the primary store is a separate,
// explicit step (PruneJournal) that refuses to run unless the archive
// object for the same window exists.
type JournalArchiver struct {
	writer  domain.BlobWriter
	reader  domain.BlobReader
	journal domain.JournalStore
}

// NewJournalArchiver creates a JournalArchiver.
func NewJournalArchiver(writer domain.BlobWriter, reader domain.BlobReader, journal domain.JournalStore) *JournalArchiver {
	return &JournalArchiver{
		writer:  writer,
		reader:  reader,
		journal: journal,
	}
}

// ArchiveJournal uploads all journal entries created before the cutoff and
// returns the count archived. An empty window uploads nothing. Archives at
// or above the S3 minimum part size go through the multipart uploader.
func (a *JournalArchiver) ArchiveJournal(ctx context.Context, before time.Time) (int64, error) {
	entries, err := a.journal.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive journal query: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(entries)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive journal marshal: %w", err)
	}

	path := archivePath(before)
	if int64(len(buf)) >= minPartSize {
		err = a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize)
	} else {
		err = a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive journal upload: %w", err)
	}

	return int64(len(entries)), nil
}

// PruneJournal deletes journal entries created before the cutoff. It refuses
// unless the archive object covering the window exists, so entries are never
// dropped without a durable copy.
func (a *JournalArchiver) PruneJournal(ctx context.Context, before time.Time) (int64, error) {
	path := archivePath(before)
	exists, err := a.reader.Exists(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("s3blob: prune journal check %s: %w", path, err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: no archive at %s, run ArchiveJournal first", domain.ErrIntegrity, path)
	}

	deleted, err := a.journal.DeleteBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: prune journal delete: %w", err)
	}
	return deleted, nil
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time.
func archivePath(before time.Time) string {
	return fmt.Sprintf("archive/journal/%s.jsonl", before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*JournalArchiver)(nil)
