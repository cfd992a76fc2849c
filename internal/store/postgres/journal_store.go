package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// JournalStore implements domain.JournalStore using PostgreSQL. The detail
// map is stored as JSONB.
type JournalStore struct {
	pool *pgxpool.Pool
}

// NewJournalStore creates a JournalStore backed by the given connection pool.
func NewJournalStore(pool *pgxpool.Pool) *JournalStore {
	return &JournalStore{pool: pool}
}

// Record appends a journal entry. CreatedAt is assigned by the database.
func (s *JournalStore) Record(ctx context.Context, entry domain.JournalEntry) error {
	var detailJSON []byte
	if entry.Detail != nil {
		var err error
		detailJSON, err = json.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("postgres: marshal journal detail: %w", err)
		}
	}

	const query = `
		INSERT INTO operation_journal
			(operation, asset_manager_id, entity_kind, entity_id, version_before, version_after, outcome, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.pool.Exec(ctx, query,
		entry.Operation,
		entry.AssetManagerID,
		entry.EntityKind,
		entry.EntityID,
		entry.VersionBefore,
		entry.VersionAfter,
		entry.Outcome,
		detailJSON,
	)
	if err != nil {
		return fmt.Errorf("postgres: record journal entry %s: %w", entry.Operation, err)
	}
	return nil
}

// ListBefore returns all entries created strictly before the cutoff, oldest
// first.
func (s *JournalStore) ListBefore(ctx context.Context, before time.Time) ([]domain.JournalEntry, error) {
	const query = `
		SELECT id, operation, asset_manager_id, entity_kind, entity_id,
		       version_before, version_after, outcome, detail, created_at
		FROM operation_journal
		WHERE created_at < $1
		ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		var detailJSON []byte

		if err := rows.Scan(
			&e.ID, &e.Operation, &e.AssetManagerID, &e.EntityKind, &e.EntityID,
			&e.VersionBefore, &e.VersionAfter, &e.Outcome, &detailJSON, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan journal entry: %w", err)
		}

		if detailJSON != nil {
			if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal journal detail: %w", err)
			}
		}

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list journal entries rows: %w", err)
	}
	return entries, nil
}

// DeleteBefore removes entries created strictly before the cutoff and returns
// the number deleted.
func (s *JournalStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM operation_journal WHERE created_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete journal entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.JournalStore = (*JournalStore)(nil)
