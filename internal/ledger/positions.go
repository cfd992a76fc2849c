package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// SearchPositions runs the multi-predicate position search. Results are
// sorted by (book id, asset id) so paging is stable.
func (c *Client) SearchPositions(ctx context.Context, assetManagerID int64, q domain.PositionQuery) ([]domain.Position, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return nil, err
	}

	query := url.Values{}
	setList(query, "book_ids", q.BookIDs)
	setList(query, "account_ids", q.AccountIDs)
	setList(query, "accounting_types", q.AccountingTypes)
	setList(query, "asset_ids", q.AssetIDs)
	setDate(query, "position_date", q.PositionDate)
	if q.IncludeCash {
		query.Set("include_cash", "true")
	}
	setPaging(query, q.Paging)

	path := fmt.Sprintf("/positions/%d", assetManagerID)
	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: search positions for %d: %w", assetManagerID, err)
	}

	positions, err := decodePositions(body)
	if err != nil {
		return nil, err
	}
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].BookID != positions[j].BookID {
			return positions[i].BookID < positions[j].BookID
		}
		return positions[i].AssetID < positions[j].AssetID
	})
	return positions, nil
}

// PositionsByAssetManager returns all positions in the owner scope,
// optionally narrowed to a set of books.
func (c *Client) PositionsByAssetManager(ctx context.Context, assetManagerID int64, bookIDs ...string) ([]domain.Position, error) {
	return c.SearchPositions(ctx, assetManagerID, domain.PositionQuery{BookIDs: bookIDs})
}

// PositionsByAssetManagerBook returns the positions held in one book.
func (c *Client) PositionsByAssetManagerBook(ctx context.Context, assetManagerID int64, bookID string) ([]domain.Position, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return nil, err
	}
	if bookID == "" {
		return nil, fmt.Errorf("%w: book id must not be empty", domain.ErrValidation)
	}

	path := fmt.Sprintf("/positions/%d/%s", assetManagerID, url.PathEscape(bookID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: positions for %d book %s: %w", assetManagerID, bookID, err)
	}

	return decodePositions(body)
}

func decodePositions(body []byte) ([]domain.Position, error) {
	var apis []APIPosition
	if err := json.Unmarshal(body, &apis); err != nil {
		return nil, fmt.Errorf("ledger: decode positions: %w", err)
	}
	positions := make([]domain.Position, 0, len(apis))
	for i := range apis {
		p, err := apis[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("ledger: position %s/%s: %w", apis[i].BookID, apis[i].AssetID, err)
		}
		positions = append(positions, p)
	}
	return positions, nil
}
