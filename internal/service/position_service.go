package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// PositionAuthority is the remote position surface the service depends on.
// *ledger.Client satisfies it.
type PositionAuthority interface {
	PositionsByAssetManager(ctx context.Context, assetManagerID int64, bookIDs ...string) ([]domain.Position, error)
	PositionsByAssetManagerBook(ctx context.Context, assetManagerID int64, bookID string) ([]domain.Position, error)
	SearchPositions(ctx context.Context, assetManagerID int64, q domain.PositionQuery) ([]domain.Position, error)
}

// PositionService fronts the authority's position queries with a read-through
// cache keyed by (owner, book, asset). Positions are authority-derived and
// never written locally, so every mutation path is a cache invalidation.
type PositionService struct {
	authority PositionAuthority
	cache     domain.EntityCache
	logger    *slog.Logger
}

// NewPositionService creates a PositionService with all required dependencies.
func NewPositionService(
	authority PositionAuthority,
	cache domain.EntityCache,
	logger *slog.Logger,
) *PositionService {
	return &PositionService{
		authority: authority,
		cache:     cache,
		logger:    logger,
	}
}

// ByAssetManager lists every position under the owner scope.
func (s *PositionService) ByAssetManager(ctx context.Context, assetManagerID int64) ([]domain.Position, error) {
	positions, err := s.authority.PositionsByAssetManager(ctx, assetManagerID)
	if err != nil {
		return nil, fmt.Errorf("position_service: list for %d: %w", assetManagerID, err)
	}
	s.cachePositions(ctx, positions)
	return positions, nil
}

// ByBook lists the positions of one book.
func (s *PositionService) ByBook(ctx context.Context, assetManagerID int64, bookID string) ([]domain.Position, error) {
	positions, err := s.authority.PositionsByAssetManagerBook(ctx, assetManagerID, bookID)
	if err != nil {
		return nil, fmt.Errorf("position_service: list book %q for %d: %w", bookID, assetManagerID, err)
	}
	s.cachePositions(ctx, positions)
	return positions, nil
}

// Search runs a predicate query against the authority.
func (s *PositionService) Search(ctx context.Context, assetManagerID int64, q domain.PositionQuery) ([]domain.Position, error) {
	positions, err := s.authority.SearchPositions(ctx, assetManagerID, q)
	if err != nil {
		return nil, fmt.Errorf("position_service: search for %d: %w", assetManagerID, err)
	}
	return positions, nil
}

// Holding returns the single position of one asset in one book, serving from
// cache when present and falling back to a narrow search.
func (s *PositionService) Holding(ctx context.Context, assetManagerID int64, bookID, assetID string) (domain.Position, error) {
	if cached, err := s.cache.GetPosition(ctx, assetManagerID, bookID, assetID); err == nil {
		return cached, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "position_service: cache read failed",
			slog.String("book_id", bookID),
			slog.String("asset_id", assetID),
			slog.String("error", err.Error()),
		)
	}

	positions, err := s.authority.SearchPositions(ctx, assetManagerID, domain.PositionQuery{
		BookIDs:  []string{bookID},
		AssetIDs: []string{assetID},
	})
	if err != nil {
		return domain.Position{}, fmt.Errorf("position_service: holding %s/%s: %w", bookID, assetID, err)
	}
	if len(positions) == 0 {
		return domain.Position{}, fmt.Errorf("%w: no position for asset %s in book %s", domain.ErrNotFound, assetID, bookID)
	}
	if len(positions) > 1 {
		return domain.Position{}, fmt.Errorf("%w: %d positions for asset %s in book %s, want 1",
			domain.ErrIntegrity, len(positions), assetID, bookID)
	}

	s.cachePositions(ctx, positions)
	return positions[0], nil
}

// Invalidate drops the cached copy of one position. The stream wires change
// events here.
func (s *PositionService) Invalidate(ctx context.Context, assetManagerID int64, bookID, assetID string) {
	if err := s.cache.InvalidatePosition(ctx, assetManagerID, bookID, assetID); err != nil {
		s.logger.WarnContext(ctx, "position_service: cache invalidate failed",
			slog.String("book_id", bookID),
			slog.String("asset_id", assetID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *PositionService) cachePositions(ctx context.Context, positions []domain.Position) {
	for i := range positions {
		if err := s.cache.SetPosition(ctx, positions[i]); err != nil {
			s.logger.WarnContext(ctx, "position_service: cache write failed",
				slog.String("book_id", positions[i].BookID),
				slog.String("asset_id", positions[i].AssetID),
				slog.String("error", err.Error()),
			)
		}
	}
}
