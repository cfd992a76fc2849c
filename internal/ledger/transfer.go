package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// apiBookTransfer is the wire form of a book transfer request.
type apiBookTransfer struct {
	AssetID      string          `json:"asset_id"`
	SourceBookID string          `json:"source_book_id"`
	TargetBookID string          `json:"target_book_id"`
	WashBookID   string          `json:"wash_book_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
}

// BookTransfer moves inventory between two books of the same owner. The
// authority persists the pair atomically: on any failure neither leg
// exists. The result is always (deliver, receive) in that order.
func (c *Client) BookTransfer(ctx context.Context, bt domain.BookTransfer) (deliver, receive domain.Transaction, err error) {
	if err := bt.Validate(); err != nil {
		return domain.Transaction{}, domain.Transaction{}, err
	}

	payload := apiBookTransfer{
		AssetID:      bt.AssetID,
		SourceBookID: bt.SourceBookID,
		TargetBookID: bt.TargetBookID,
		WashBookID:   bt.WashBookID,
		Quantity:     bt.Quantity,
		Price:        bt.Price,
		Currency:     bt.Currency,
	}

	path := fmt.Sprintf("/book_transfer/%d", bt.AssetManagerID)
	body, err := c.doRequest(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return domain.Transaction{}, domain.Transaction{},
			fmt.Errorf("ledger: book transfer %s -> %s: %w", bt.SourceBookID, bt.TargetBookID, err)
	}

	var legs []APITransaction
	if err := json.Unmarshal(body, &legs); err != nil {
		return domain.Transaction{}, domain.Transaction{}, fmt.Errorf("ledger: decode book transfer: %w", err)
	}
	if len(legs) != 2 {
		return domain.Transaction{}, domain.Transaction{},
			fmt.Errorf("%w: book transfer returned %d legs, want 2", domain.ErrIntegrity, len(legs))
	}

	return legs[0].ToDomain(), legs[1].ToDomain(), nil
}

// DepotTransfer would move stock between custodial depot accounts. That
// requires an external settlement message to the custodian, which this
// ledger does not issue; the call fails fast without touching the network.
func (c *Client) DepotTransfer(ctx context.Context, assetManagerID int64, assetID, sourceAccountID, targetAccountID string, quantity decimal.Decimal) error {
	return fmt.Errorf("%w: depot transfers require custodian messaging", domain.ErrUnsupported)
}
