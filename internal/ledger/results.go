package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// NewMTMResults inserts mark-to-market results for the owner scope.
func (c *Client) NewMTMResults(ctx context.Context, assetManagerID int64, results []domain.MTMResult) ([]domain.MTMResult, error) {
	return c.writeMTMResults(ctx, http.MethodPost, assetManagerID, results)
}

// AmendMTMResults replaces previously inserted mark-to-market results.
func (c *Client) AmendMTMResults(ctx context.Context, assetManagerID int64, results []domain.MTMResult) ([]domain.MTMResult, error) {
	return c.writeMTMResults(ctx, http.MethodPut, assetManagerID, results)
}

func (c *Client) writeMTMResults(ctx context.Context, method string, assetManagerID int64, results []domain.MTMResult) ([]domain.MTMResult, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: empty mtm result batch", domain.ErrValidation)
	}

	payload := make([]APIMTMResult, 0, len(results))
	for _, r := range results {
		payload = append(payload, FromMTMResult(r))
	}

	path := fmt.Sprintf("/mtm/%d", assetManagerID)
	body, err := c.doRequest(ctx, method, path, nil, payload)
	if err != nil {
		return nil, fmt.Errorf("ledger: write mtm results for %d: %w", assetManagerID, err)
	}

	return decodeMTMResults(body)
}

// RetrieveMTMResults fetches mark-to-market results for one book on a
// business date.
func (c *Client) RetrieveMTMResults(ctx context.Context, assetManagerID int64, bookID string, businessDate time.Time) ([]domain.MTMResult, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return nil, err
	}
	if bookID == "" {
		return nil, fmt.Errorf("%w: book id must not be empty", domain.ErrValidation)
	}

	query := url.Values{}
	query.Set("book_id", bookID)
	setDate(query, "business_date", businessDate)

	path := fmt.Sprintf("/mtm/%d", assetManagerID)
	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: retrieve mtm results for %d: %w", assetManagerID, err)
	}

	return decodeMTMResults(body)
}

// NewTransactionPNLs inserts per-transaction PnL results.
func (c *Client) NewTransactionPNLs(ctx context.Context, assetManagerID int64, pnls []domain.TransactionPNL) ([]domain.TransactionPNL, error) {
	return c.writeTransactionPNLs(ctx, http.MethodPost, assetManagerID, pnls)
}

// AmendTransactionPNLs replaces per-transaction PnL results.
func (c *Client) AmendTransactionPNLs(ctx context.Context, assetManagerID int64, pnls []domain.TransactionPNL) ([]domain.TransactionPNL, error) {
	return c.writeTransactionPNLs(ctx, http.MethodPut, assetManagerID, pnls)
}

func (c *Client) writeTransactionPNLs(ctx context.Context, method string, assetManagerID int64, pnls []domain.TransactionPNL) ([]domain.TransactionPNL, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return nil, err
	}
	if len(pnls) == 0 {
		return nil, fmt.Errorf("%w: empty transaction pnl batch", domain.ErrValidation)
	}

	payload := make([]APITransactionPNL, 0, len(pnls))
	for _, p := range pnls {
		payload = append(payload, FromTransactionPNL(p))
	}

	path := fmt.Sprintf("/transaction_pnls/%d", assetManagerID)
	body, err := c.doRequest(ctx, method, path, nil, payload)
	if err != nil {
		return nil, fmt.Errorf("ledger: write transaction pnls for %d: %w", assetManagerID, err)
	}

	return decodeTransactionPNLs(body)
}

// RetrieveTransactionPNLs fetches per-transaction PnL results for a set of
// books on a business date, optionally narrowed to periods ("DTD", "MTD",
// "YTD").
func (c *Client) RetrieveTransactionPNLs(ctx context.Context, assetManagerID int64, bookIDs []string, businessDate time.Time, periods ...string) ([]domain.TransactionPNL, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return nil, err
	}
	if len(bookIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one book id is required", domain.ErrValidation)
	}

	query := url.Values{}
	setList(query, "book_ids", bookIDs)
	setDate(query, "business_date", businessDate)
	if len(periods) > 0 {
		query.Set("periods", strings.Join(periods, ","))
	}

	path := fmt.Sprintf("/transaction_pnls/%d", assetManagerID)
	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: retrieve transaction pnls for %d: %w", assetManagerID, err)
	}

	return decodeTransactionPNLs(body)
}

// NewPositionPNLs inserts per-position PnL results.
func (c *Client) NewPositionPNLs(ctx context.Context, assetManagerID int64, pnls []domain.PositionPNL) ([]domain.PositionPNL, error) {
	return c.writePositionPNLs(ctx, http.MethodPost, assetManagerID, pnls)
}

// AmendPositionPNLs replaces per-position PnL results.
func (c *Client) AmendPositionPNLs(ctx context.Context, assetManagerID int64, pnls []domain.PositionPNL) ([]domain.PositionPNL, error) {
	return c.writePositionPNLs(ctx, http.MethodPut, assetManagerID, pnls)
}

func (c *Client) writePositionPNLs(ctx context.Context, method string, assetManagerID int64, pnls []domain.PositionPNL) ([]domain.PositionPNL, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return nil, err
	}
	if len(pnls) == 0 {
		return nil, fmt.Errorf("%w: empty position pnl batch", domain.ErrValidation)
	}

	payload := make([]APIPositionPNL, 0, len(pnls))
	for _, p := range pnls {
		payload = append(payload, FromPositionPNL(p))
	}

	path := fmt.Sprintf("/position_pnls/%d", assetManagerID)
	body, err := c.doRequest(ctx, method, path, nil, payload)
	if err != nil {
		return nil, fmt.Errorf("ledger: write position pnls for %d: %w", assetManagerID, err)
	}

	return decodePositionPNLs(body)
}

// RetrievePositionPNLs fetches per-position PnL results for a set of books
// on a business date.
func (c *Client) RetrievePositionPNLs(ctx context.Context, assetManagerID int64, bookIDs []string, businessDate time.Time, periods ...string) ([]domain.PositionPNL, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return nil, err
	}
	if len(bookIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one book id is required", domain.ErrValidation)
	}

	query := url.Values{}
	setList(query, "book_ids", bookIDs)
	setDate(query, "business_date", businessDate)
	if len(periods) > 0 {
		query.Set("periods", strings.Join(periods, ","))
	}

	path := fmt.Sprintf("/position_pnls/%d", assetManagerID)
	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: retrieve position pnls for %d: %w", assetManagerID, err)
	}

	return decodePositionPNLs(body)
}

// PNLTransactions fetches the transactions feeding PnL for one book over a
// date range.
func (c *Client) PNLTransactions(ctx context.Context, assetManagerID int64, bookID string, startDate, endDate time.Time) ([]domain.Transaction, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return nil, err
	}
	if bookID == "" {
		return nil, fmt.Errorf("%w: book id must not be empty", domain.ErrValidation)
	}

	query := url.Values{}
	query.Set("book_id", bookID)
	setDate(query, "start_date", startDate)
	setDate(query, "end_date", endDate)

	path := fmt.Sprintf("/pnl_transactions/%d", assetManagerID)
	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: retrieve pnl transactions for %d: %w", assetManagerID, err)
	}

	return decodeTransactions(body)
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

func decodeMTMResults(body []byte) ([]domain.MTMResult, error) {
	var apis []APIMTMResult
	if err := json.Unmarshal(body, &apis); err != nil {
		return nil, fmt.Errorf("ledger: decode mtm results: %w", err)
	}
	results := make([]domain.MTMResult, 0, len(apis))
	for i := range apis {
		results = append(results, apis[i].ToDomain())
	}
	return results, nil
}

func decodeTransactionPNLs(body []byte) ([]domain.TransactionPNL, error) {
	var apis []APITransactionPNL
	if err := json.Unmarshal(body, &apis); err != nil {
		return nil, fmt.Errorf("ledger: decode transaction pnls: %w", err)
	}
	pnls := make([]domain.TransactionPNL, 0, len(apis))
	for i := range apis {
		pnls = append(pnls, apis[i].ToDomain())
	}
	return pnls, nil
}

func decodePositionPNLs(body []byte) ([]domain.PositionPNL, error) {
	var apis []APIPositionPNL
	if err := json.Unmarshal(body, &apis); err != nil {
		return nil, fmt.Errorf("ledger: decode position pnls: %w", err)
	}
	pnls := make([]domain.PositionPNL, 0, len(apis))
	for i := range apis {
		pnls = append(pnls, apis[i].ToDomain())
	}
	return pnls, nil
}
