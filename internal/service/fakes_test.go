package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alphaledger/ledgerd/internal/domain"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.DiscardHandler)
}

// fakeCache is an in-memory domain.EntityCache. Setting failErr makes every
// call fail, which the services must survive.
type fakeCache struct {
	mu        sync.Mutex
	txns      map[string]domain.Transaction
	positions map[string]domain.Position
	failErr   error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		txns:      make(map[string]domain.Transaction),
		positions: make(map[string]domain.Position),
	}
}

func txnKey(owner int64, id string) string {
	return fmt.Sprintf("%d:%s", owner, id)
}

func posKey(owner int64, book, asset string) string {
	return fmt.Sprintf("%d:%s:%s", owner, book, asset)
}

func (c *fakeCache) SetTransaction(_ context.Context, txn domain.Transaction) error {
	if c.failErr != nil {
		return c.failErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txns[txnKey(txn.AssetManagerID, txn.TransactionID)] = txn
	return nil
}

func (c *fakeCache) GetTransaction(_ context.Context, owner int64, id string) (domain.Transaction, error) {
	if c.failErr != nil {
		return domain.Transaction{}, c.failErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	txn, ok := c.txns[txnKey(owner, id)]
	if !ok {
		return domain.Transaction{}, domain.ErrNotFound
	}
	return txn, nil
}

func (c *fakeCache) InvalidateTransaction(_ context.Context, owner int64, id string) error {
	if c.failErr != nil {
		return c.failErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.txns, txnKey(owner, id))
	return nil
}

func (c *fakeCache) SetPosition(_ context.Context, pos domain.Position) error {
	if c.failErr != nil {
		return c.failErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positions[posKey(pos.AssetManagerID, pos.BookID, pos.AssetID)] = pos
	return nil
}

func (c *fakeCache) GetPosition(_ context.Context, owner int64, book, asset string) (domain.Position, error) {
	if c.failErr != nil {
		return domain.Position{}, c.failErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pos, ok := c.positions[posKey(owner, book, asset)]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	return pos, nil
}

func (c *fakeCache) InvalidatePosition(_ context.Context, owner int64, book, asset string) error {
	if c.failErr != nil {
		return c.failErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.positions, posKey(owner, book, asset))
	return nil
}

func (c *fakeCache) hasTransaction(owner int64, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.txns[txnKey(owner, id)]
	return ok
}

func (c *fakeCache) hasPosition(owner int64, book, asset string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.positions[posKey(owner, book, asset)]
	return ok
}

var _ domain.EntityCache = (*fakeCache)(nil)

// fakeJournal is an in-memory domain.JournalStore.
type fakeJournal struct {
	mu        sync.Mutex
	entries   []domain.JournalEntry
	recordErr error
}

func (j *fakeJournal) Record(_ context.Context, entry domain.JournalEntry) error {
	if j.recordErr != nil {
		return j.recordErr
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	entry.CreatedAt = time.Now()
	j.entries = append(j.entries, entry)
	return nil
}

func (j *fakeJournal) ListBefore(_ context.Context, before time.Time) ([]domain.JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []domain.JournalEntry
	for _, e := range j.entries {
		if e.CreatedAt.Before(before) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (j *fakeJournal) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
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

func (j *fakeJournal) recorded() []domain.JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]domain.JournalEntry(nil), j.entries...)
}

var _ domain.JournalStore = (*fakeJournal)(nil)
