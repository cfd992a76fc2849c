package service

import (
	"context"
	"log/slog"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// CacheInvalidator routes entity-change events from the stream to the cache
// invalidation paths of the transaction and position services.
type CacheInvalidator struct {
	transactions *TransactionService
	positions    *PositionService
	logger       *slog.Logger
}

// NewCacheInvalidator creates a CacheInvalidator over both services.
func NewCacheInvalidator(transactions *TransactionService, positions *PositionService, logger *slog.Logger) *CacheInvalidator {
	return &CacheInvalidator{
		transactions: transactions,
		positions:    positions,
		logger:       logger,
	}
}

// Handle processes one change event. It is safe to register directly as a
// stream handler.
func (ci *CacheInvalidator) Handle(event domain.ChangeEvent) {
	ctx := context.Background()

	switch event.Kind {
	case domain.KindTransaction:
		ci.transactions.Invalidate(ctx, event.AssetManagerID, event.EntityID)
	case domain.KindPosition:
		ci.positions.Invalidate(ctx, event.AssetManagerID, event.BookID, event.AssetID)
	default:
		return
	}

	ci.logger.DebugContext(ctx, "invalidator: cache entry dropped",
		slog.String("kind", event.Kind),
		slog.Int64("asset_manager_id", event.AssetManagerID),
		slog.String("entity_id", event.EntityID),
		slog.Int64("version", event.Version),
	)
}
