package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// TransactionAuthority is the remote transaction surface the service depends
// on. *ledger.Client satisfies it.
type TransactionAuthority interface {
	NewTransaction(ctx context.Context, tx *domain.Transaction) (domain.Transaction, error)
	CreateMany(ctx context.Context, txs []*domain.Transaction) ([]domain.Transaction, error)
	AmendTransaction(ctx context.Context, tx *domain.Transaction) (domain.Transaction, error)
	PartialAmendTransaction(ctx context.Context, assetManagerID int64, transactionID string, updates map[string]any) (domain.Transaction, error)
	RetrieveTransaction(ctx context.Context, assetManagerID int64, transactionID string, version int64) (domain.Transaction, error)
	CancelTransaction(ctx context.Context, assetManagerID int64, transactionID string) (domain.Transaction, error)
	TransactionsByAssetManager(ctx context.Context, assetManagerID int64) ([]domain.Transaction, error)
	SearchTransactions(ctx context.Context, assetManagerID int64, q domain.TransactionQuery) ([]domain.Transaction, error)
}

// TransactionService fronts the authority's transaction operations with a
// read-through cache and a local operation journal. Journal and cache
// failures never fail the caller's operation; they are logged and the
// authoritative result is returned.
type TransactionService struct {
	authority TransactionAuthority
	cache     domain.EntityCache
	journal   domain.JournalStore
	logger    *slog.Logger
}

// NewTransactionService creates a TransactionService with all required
// dependencies.
func NewTransactionService(
	authority TransactionAuthority,
	cache domain.EntityCache,
	journal domain.JournalStore,
	logger *slog.Logger,
) *TransactionService {
	return &TransactionService{
		authority: authority,
		cache:     cache,
		journal:   journal,
		logger:    logger,
	}
}

// Create inserts a new transaction and caches the persisted result.
func (s *TransactionService) Create(ctx context.Context, tx *domain.Transaction) (domain.Transaction, error) {
	created, err := s.authority.NewTransaction(ctx, tx)
	if err != nil {
		s.record(ctx, "transaction_create", tx.AssetManagerID, tx.TransactionID, tx.Version, 0, err, nil)
		return domain.Transaction{}, fmt.Errorf("transaction_service: create: %w", err)
	}

	s.cacheTransaction(ctx, created)
	s.record(ctx, "transaction_create", created.AssetManagerID, created.TransactionID, 0, created.Version, nil, map[string]any{
		"asset_id":   created.AssetID,
		"action":     string(created.Action),
		"quantity":   created.Quantity.String(),
		"asset_book": created.AssetBookID,
	})

	s.logger.InfoContext(ctx, "transaction_service: transaction created",
		slog.String("transaction_id", created.TransactionID),
		slog.Int64("asset_manager_id", created.AssetManagerID),
		slog.Int64("version", created.Version),
	)

	return created, nil
}

// CreateMany inserts a batch of transactions for one owner and caches each
// persisted result.
func (s *TransactionService) CreateMany(ctx context.Context, txs []*domain.Transaction) ([]domain.Transaction, error) {
	created, err := s.authority.CreateMany(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("transaction_service: create batch: %w", err)
	}

	for i := range created {
		s.cacheTransaction(ctx, created[i])
		s.record(ctx, "transaction_create", created[i].AssetManagerID, created[i].TransactionID, 0, created[i].Version, nil, nil)
	}

	s.logger.InfoContext(ctx, "transaction_service: batch created",
		slog.Int("count", len(created)),
	)

	return created, nil
}

// Amend replaces a persisted transaction. On a version conflict the caller
// must re-retrieve and retry; the stale cache entry is dropped so the retry
// reads fresh.
func (s *TransactionService) Amend(ctx context.Context, tx *domain.Transaction) (domain.Transaction, error) {
	amended, err := s.authority.AmendTransaction(ctx, tx)
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			s.invalidateTransaction(ctx, tx.AssetManagerID, tx.TransactionID)
		}
		s.record(ctx, "transaction_amend", tx.AssetManagerID, tx.TransactionID, tx.Version, 0, err, nil)
		return domain.Transaction{}, fmt.Errorf("transaction_service: amend %s: %w", tx.TransactionID, err)
	}

	s.cacheTransaction(ctx, amended)
	s.record(ctx, "transaction_amend", amended.AssetManagerID, amended.TransactionID, tx.Version, amended.Version, nil, nil)

	s.logger.InfoContext(ctx, "transaction_service: transaction amended",
		slog.String("transaction_id", amended.TransactionID),
		slog.Int64("version", amended.Version),
	)

	return amended, nil
}

// PartialAmend updates only the named fields of a transaction.
func (s *TransactionService) PartialAmend(ctx context.Context, assetManagerID int64, transactionID string, updates map[string]any) (domain.Transaction, error) {
	amended, err := s.authority.PartialAmendTransaction(ctx, assetManagerID, transactionID, updates)
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			s.invalidateTransaction(ctx, assetManagerID, transactionID)
		}
		s.record(ctx, "transaction_partial_amend", assetManagerID, transactionID, 0, 0, err, nil)
		return domain.Transaction{}, fmt.Errorf("transaction_service: partial amend %s: %w", transactionID, err)
	}

	s.cacheTransaction(ctx, amended)
	s.record(ctx, "transaction_partial_amend", amended.AssetManagerID, amended.TransactionID, 0, amended.Version, nil, nil)

	return amended, nil
}

// Retrieve fetches a transaction, serving the current version from cache
// when present. Requests for a specific historical version always go to the
// authority.
func (s *TransactionService) Retrieve(ctx context.Context, assetManagerID int64, transactionID string, version int64) (domain.Transaction, error) {
	if version == 0 {
		if cached, err := s.cache.GetTransaction(ctx, assetManagerID, transactionID); err == nil {
			return cached, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "transaction_service: cache read failed",
				slog.String("transaction_id", transactionID),
				slog.String("error", err.Error()),
			)
		}
	}

	tx, err := s.authority.RetrieveTransaction(ctx, assetManagerID, transactionID, version)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction_service: retrieve %s: %w", transactionID, err)
	}

	if version == 0 {
		s.cacheTransaction(ctx, tx)
	}

	return tx, nil
}

// Cancel marks a transaction cancelled. The entity survives with its status
// flipped, so the cache entry is replaced rather than dropped.
func (s *TransactionService) Cancel(ctx context.Context, assetManagerID int64, transactionID string) (domain.Transaction, error) {
	cancelled, err := s.authority.CancelTransaction(ctx, assetManagerID, transactionID)
	if err != nil {
		s.record(ctx, "transaction_cancel", assetManagerID, transactionID, 0, 0, err, nil)
		return domain.Transaction{}, fmt.Errorf("transaction_service: cancel %s: %w", transactionID, err)
	}

	s.cacheTransaction(ctx, cancelled)
	s.record(ctx, "transaction_cancel", cancelled.AssetManagerID, cancelled.TransactionID, 0, cancelled.Version, nil, nil)

	s.logger.InfoContext(ctx, "transaction_service: transaction cancelled",
		slog.String("transaction_id", transactionID),
	)

	return cancelled, nil
}

// ByAssetManager lists every transaction under the owner scope.
func (s *TransactionService) ByAssetManager(ctx context.Context, assetManagerID int64) ([]domain.Transaction, error) {
	txs, err := s.authority.TransactionsByAssetManager(ctx, assetManagerID)
	if err != nil {
		return nil, fmt.Errorf("transaction_service: list for %d: %w", assetManagerID, err)
	}
	return txs, nil
}

// Search runs a predicate query against the authority. Results are not
// cached; only point retrievals are.
func (s *TransactionService) Search(ctx context.Context, assetManagerID int64, q domain.TransactionQuery) ([]domain.Transaction, error) {
	txs, err := s.authority.SearchTransactions(ctx, assetManagerID, q)
	if err != nil {
		return nil, fmt.Errorf("transaction_service: search for %d: %w", assetManagerID, err)
	}
	return txs, nil
}

// Invalidate drops the cached copy of a transaction. The stream wires change
// events here.
func (s *TransactionService) Invalidate(ctx context.Context, assetManagerID int64, transactionID string) {
	s.invalidateTransaction(ctx, assetManagerID, transactionID)
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

func (s *TransactionService) cacheTransaction(ctx context.Context, tx domain.Transaction) {
	if err := s.cache.SetTransaction(ctx, tx); err != nil {
		s.logger.WarnContext(ctx, "transaction_service: cache write failed",
			slog.String("transaction_id", tx.TransactionID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *TransactionService) invalidateTransaction(ctx context.Context, assetManagerID int64, transactionID string) {
	if err := s.cache.InvalidateTransaction(ctx, assetManagerID, transactionID); err != nil {
		s.logger.WarnContext(ctx, "transaction_service: cache invalidate failed",
			slog.String("transaction_id", transactionID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *TransactionService) record(ctx context.Context, op string, assetManagerID int64, entityID string, versionBefore, versionAfter int64, opErr error, detail map[string]any) {
	entry := domain.JournalEntry{
		Operation:      op,
		AssetManagerID: assetManagerID,
		EntityKind:     domain.KindTransaction,
		EntityID:       entityID,
		VersionBefore:  versionBefore,
		VersionAfter:   versionAfter,
		Outcome:        domain.OutcomeOK,
		Detail:         detail,
	}
	if opErr != nil {
		entry.Outcome = domain.OutcomeError
		if entry.Detail == nil {
			entry.Detail = map[string]any{}
		}
		entry.Detail["error"] = opErr.Error()
	}

	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "transaction_service: journal write failed",
			slog.String("operation", op),
			slog.String("entity_id", entityID),
			slog.String("error", err.Error()),
		)
	}
}
