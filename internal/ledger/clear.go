package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// Clear hard-deletes all transactions and positions for an owner scope,
// optionally narrowed to a set of books, and returns the counts deleted.
// It is irreversible and intended for non-production cleanup; in
// production, deactivate instead.
func (c *Client) Clear(ctx context.Context, assetManagerID int64, bookIDs ...string) (domain.ClearResult, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return domain.ClearResult{}, err
	}

	var query url.Values
	if len(bookIDs) > 0 {
		query = url.Values{}
		setList(query, "book_ids", bookIDs)
	}

	path := fmt.Sprintf("/clear/%d", assetManagerID)
	body, err := c.doRequest(ctx, http.MethodDelete, path, query, nil)
	if err != nil {
		return domain.ClearResult{}, fmt.Errorf("ledger: clear %d: %w", assetManagerID, err)
	}

	var counts struct {
		TransactionCount int64 `json:"transaction_count"`
		PositionCount    int64 `json:"position_count"`
	}
	if err := json.Unmarshal(body, &counts); err != nil {
		return domain.ClearResult{}, fmt.Errorf("ledger: decode clear result: %w", err)
	}

	return domain.ClearResult{
		TransactionCount: counts.TransactionCount,
		PositionCount:    counts.PositionCount,
	}, nil
}
