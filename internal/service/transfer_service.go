package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// TransferAuthority is the remote transfer surface the coordinator depends
// on. *ledger.Client satisfies it.
type TransferAuthority interface {
	BookTransfer(ctx context.Context, bt domain.BookTransfer) (deliver, receive domain.Transaction, err error)
}

// BookTransferCoordinator fronts atomic book-to-book inventory moves with
// local validation and journaling. The two resulting legs are cached so a
// follow-up retrieval does not round-trip.
type BookTransferCoordinator struct {
	authority TransferAuthority
	cache     domain.EntityCache
	journal   domain.JournalStore
	logger    *slog.Logger
}

// NewBookTransferCoordinator creates a BookTransferCoordinator with all
// required dependencies.
func NewBookTransferCoordinator(
	authority TransferAuthority,
	cache domain.EntityCache,
	journal domain.JournalStore,
	logger *slog.Logger,
) *BookTransferCoordinator {
	return &BookTransferCoordinator{
		authority: authority,
		cache:     cache,
		journal:   journal,
		logger:    logger,
	}
}

// Transfer moves inventory from the source book to the target book through
// the wash book. Either both legs exist afterwards or neither does.
func (c *BookTransferCoordinator) Transfer(ctx context.Context, bt domain.BookTransfer) (deliver, receive domain.Transaction, err error) {
	if err := bt.Validate(); err != nil {
		return domain.Transaction{}, domain.Transaction{}, err
	}

	deliver, receive, err = c.authority.BookTransfer(ctx, bt)
	if err != nil {
		c.record(ctx, bt, "", "", err)
		return domain.Transaction{}, domain.Transaction{},
			fmt.Errorf("book_transfer: %s -> %s: %w", bt.SourceBookID, bt.TargetBookID, err)
	}

	for _, leg := range []domain.Transaction{deliver, receive} {
		if cacheErr := c.cache.SetTransaction(ctx, leg); cacheErr != nil {
			c.logger.WarnContext(ctx, "book_transfer: cache write failed",
				slog.String("transaction_id", leg.TransactionID),
				slog.String("error", cacheErr.Error()),
			)
		}
	}

	c.record(ctx, bt, deliver.TransactionID, receive.TransactionID, nil)

	c.logger.InfoContext(ctx, "book_transfer: transfer complete",
		slog.String("source_book", bt.SourceBookID),
		slog.String("target_book", bt.TargetBookID),
		slog.String("asset_id", bt.AssetID),
		slog.String("quantity", bt.Quantity.String()),
	)

	return deliver, receive, nil
}

func (c *BookTransferCoordinator) record(ctx context.Context, bt domain.BookTransfer, deliverID, receiveID string, opErr error) {
	entry := domain.JournalEntry{
		Operation:      "book_transfer",
		AssetManagerID: bt.AssetManagerID,
		EntityKind:     domain.KindTransaction,
		EntityID:       deliverID,
		Outcome:        domain.OutcomeOK,
		Detail: map[string]any{
			"asset_id":    bt.AssetID,
			"source_book": bt.SourceBookID,
			"target_book": bt.TargetBookID,
			"wash_book":   bt.WashBookID,
			"quantity":    bt.Quantity.String(),
			"receive_id":  receiveID,
		},
	}
	if opErr != nil {
		entry.Outcome = domain.OutcomeError
		entry.Detail["error"] = opErr.Error()
	}

	if err := c.journal.Record(ctx, entry); err != nil {
		c.logger.WarnContext(ctx, "book_transfer: journal write failed",
			slog.String("source_book", bt.SourceBookID),
			slog.String("error", err.Error()),
		)
	}
}
