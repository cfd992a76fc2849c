package s3blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// memBlob is an in-memory BlobWriter and BlobReader. It remembers which
// paths were uploaded via the multipart path.
type memBlob struct {
	objects   map[string][]byte
	multipart map[string]bool
}

func newMemBlob() *memBlob {
	return &memBlob{
		objects:   make(map[string][]byte),
		multipart: make(map[string]bool),
	}
}

func (m *memBlob) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.objects[path] = buf
	return nil
}

func (m *memBlob) PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error {
	m.multipart[path] = true
	return m.Put(ctx, path, data, "")
}

func (m *memBlob) Get(_ context.Context, path string) (io.ReadCloser, error) {
	buf, ok := m.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (m *memBlob) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	var infos []domain.BlobInfo
	for path, buf := range m.objects {
		if strings.HasPrefix(path, prefix) {
			infos = append(infos, domain.BlobInfo{Path: path, Size: int64(len(buf))})
		}
	}
	return infos, nil
}

func (m *memBlob) Exists(_ context.Context, path string) (bool, error) {
	_, ok := m.objects[path]
	return ok, nil
}

var (
	_ domain.BlobWriter = (*memBlob)(nil)
	_ domain.BlobReader = (*memBlob)(nil)
)

// memJournal is an in-memory JournalStore seeded with timestamped entries.
type memJournal struct {
	entries []domain.JournalEntry
}

func (j *memJournal) Record(_ context.Context, entry domain.JournalEntry) error {
	j.entries = append(j.entries, entry)
	return nil
}

func (j *memJournal) ListBefore(_ context.Context, before time.Time) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	for _, e := range j.entries {
		if e.CreatedAt.Before(before) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (j *memJournal) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	var kept []domain.JournalEntry
	var deleted int64
	for _, e := range j.entries {
		if e.CreatedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	j.entries = kept
	return deleted, nil
}

var _ domain.JournalStore = (*memJournal)(nil)

func seedJournal(cutoff time.Time) *memJournal {
	return &memJournal{entries: []domain.JournalEntry{
		{ID: 1, Operation: "transaction_create", AssetManagerID: 1, EntityID: "T1", Outcome: domain.OutcomeOK, CreatedAt: cutoff.Add(-48 * time.Hour)},
		{ID: 2, Operation: "transaction_amend", AssetManagerID: 1, EntityID: "T1", Outcome: domain.OutcomeOK, CreatedAt: cutoff.Add(-24 * time.Hour)},
		{ID: 3, Operation: "transaction_cancel", AssetManagerID: 1, EntityID: "T2", Outcome: domain.OutcomeOK, CreatedAt: cutoff.Add(time.Hour)},
	}}
}

func TestArchiveJournal(t *testing.T) {
	cutoff := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	blob := newMemBlob()
	journal := seedJournal(cutoff)
	archiver := NewJournalArchiver(blob, blob, journal)

	archived, err := archiver.ArchiveJournal(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), archived)

	buf, ok := blob.objects["archive/journal/2026-08.jsonl"]
	require.True(t, ok)
	assert.False(t, blob.multipart["archive/journal/2026-08.jsonl"])

	lines := strings.Split(strings.TrimSpace(string(buf)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "transaction_create")
	assert.Contains(t, lines[1], "transaction_amend")
}

func TestArchiveJournalLargeWindowUsesMultipart(t *testing.T) {
	cutoff := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	blob := newMemBlob()

	// Enough padded entries to push the JSONL buffer past the 5 MiB
	// multipart threshold.
	padding := strings.Repeat("x", 1024)
	journal := &memJournal{}
	for i := 0; i < 6*1024; i++ {
		journal.entries = append(journal.entries, domain.JournalEntry{
			ID:        int64(i),
			Operation: "transaction_create",
			EntityID:  "T1",
			Outcome:   domain.OutcomeOK,
			Detail:    map[string]any{"padding": padding},
			CreatedAt: cutoff.Add(-time.Hour),
		})
	}
	archiver := NewJournalArchiver(blob, blob, journal)

	archived, err := archiver.ArchiveJournal(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(6*1024), archived)
	assert.True(t, blob.multipart["archive/journal/2026-08.jsonl"])
}

func TestArchiveJournalEmptyWindow(t *testing.T) {
	blob := newMemBlob()
	archiver := NewJournalArchiver(blob, blob, &memJournal{})

	archived, err := archiver.ArchiveJournal(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, archived)
	assert.Empty(t, blob.objects)
}

func TestPruneJournalRequiresArchive(t *testing.T) {
	cutoff := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	blob := newMemBlob()
	journal := seedJournal(cutoff)
	archiver := NewJournalArchiver(blob, blob, journal)

	// No archive object yet: pruning must refuse.
	_, err := archiver.PruneJournal(context.Background(), cutoff)
	assert.ErrorIs(t, err, domain.ErrIntegrity)
	assert.Len(t, journal.entries, 3)

	_, err = archiver.ArchiveJournal(context.Background(), cutoff)
	require.NoError(t, err)

	pruned, err := archiver.PruneJournal(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)
	require.Len(t, journal.entries, 1)
	assert.Equal(t, "transaction_cancel", journal.entries[0].Operation)
}
