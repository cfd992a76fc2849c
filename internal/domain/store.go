package domain

import (
	"context"
	"time"
)

// JournalEntry records one mutating call this client performed against the
// authority: what was submitted, for whom, and what came back. The journal
// is local bookkeeping only; it is never consulted to decide outcomes.
type JournalEntry struct {
	ID             int64
	Operation      string
	AssetManagerID int64
	EntityKind     string
	EntityID       string
	VersionBefore  int64
	VersionAfter   int64
	Outcome        string
	Detail         map[string]any
	CreatedAt      time.Time
}

// Journal outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// JournalStore persists journal entries.
type JournalStore interface {
	// Record appends an entry. CreatedAt is assigned by the store.
	Record(ctx context.Context, entry JournalEntry) error

	// ListBefore returns all entries created strictly before the cutoff,
	// oldest first.
	ListBefore(ctx context.Context, before time.Time) ([]JournalEntry, error)

	// DeleteBefore removes entries created strictly before the cutoff and
	// returns the number deleted. Callers run it only after the archive of
	// the same window has been verified.
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// EntityCache is the read-through cache for authoritative copies. Get
// returns ErrNotFound on a miss.
type EntityCache interface {
	SetTransaction(ctx context.Context, txn Transaction) error
	GetTransaction(ctx context.Context, assetManagerID int64, transactionID string) (Transaction, error)
	InvalidateTransaction(ctx context.Context, assetManagerID int64, transactionID string) error

	SetPosition(ctx context.Context, pos Position) error
	GetPosition(ctx context.Context, assetManagerID int64, bookID, assetID string) (Position, error)
	InvalidatePosition(ctx context.Context, assetManagerID int64, bookID, assetID string) error
}
