package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// NewTransaction persists a transaction for the first time and returns the
// authoritative copy with its assigned version and timestamps. The local
// copy is stale from this point on.
func (c *Client) NewTransaction(ctx context.Context, txn *domain.Transaction) (domain.Transaction, error) {
	if err := validateOwner(txn.AssetManagerID); err != nil {
		return domain.Transaction{}, err
	}

	path := fmt.Sprintf("/transactions/%d", txn.AssetManagerID)
	body, err := c.doRequest(ctx, http.MethodPost, path, nil, FromTransaction(txn))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ledger: new transaction %s: %w", txn.TransactionID, err)
	}

	return decodeTransaction(body)
}

// CreateMany persists a batch of transactions in one call. All must share
// the same asset manager id; a mismatch is rejected before any remote call.
// The authority treats the batch as all-or-nothing.
func (c *Client) CreateMany(ctx context.Context, txns []*domain.Transaction) ([]domain.Transaction, error) {
	if len(txns) == 0 {
		return nil, fmt.Errorf("%w: empty transaction batch", domain.ErrValidation)
	}

	ownerID := txns[0].AssetManagerID
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	payload := make([]APITransaction, 0, len(txns))
	for _, txn := range txns {
		if txn.AssetManagerID != ownerID {
			return nil, fmt.Errorf("%w: batch mixes asset managers %d and %d",
				domain.ErrValidation, ownerID, txn.AssetManagerID)
		}
		payload = append(payload, FromTransaction(txn))
	}

	path := fmt.Sprintf("/transactions/%d", ownerID)
	body, err := c.doRequest(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, fmt.Errorf("ledger: create %d transactions: %w", len(txns), err)
	}

	return decodeTransactions(body)
}

// AmendTransaction replaces the whole record. The submitted copy must carry
// the version the caller read; the authority rejects stale bases with a
// version conflict.
func (c *Client) AmendTransaction(ctx context.Context, txn *domain.Transaction) (domain.Transaction, error) {
	if err := validateOwner(txn.AssetManagerID); err != nil {
		return domain.Transaction{}, err
	}
	if !txn.Persisted() {
		return domain.Transaction{}, fmt.Errorf("%w: amend requires a persisted transaction (version is unset)",
			domain.ErrValidation)
	}

	path := fmt.Sprintf("/transactions/%d/%s", txn.AssetManagerID, url.PathEscape(txn.TransactionID))
	body, err := c.doRequest(ctx, http.MethodPut, path, nil, FromTransaction(txn))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ledger: amend transaction %s: %w", txn.TransactionID, err)
	}

	return decodeTransaction(body)
}

// PartialAmendTransaction applies a sparse field-level diff. Keys are wire
// field names; the base version travels in the diff so conflicts surface
// the same way as full amends.
func (c *Client) PartialAmendTransaction(ctx context.Context, assetManagerID int64, transactionID string, updates map[string]any) (domain.Transaction, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return domain.Transaction{}, err
	}
	if len(updates) == 0 {
		return domain.Transaction{}, fmt.Errorf("%w: empty partial amendment", domain.ErrValidation)
	}

	path := fmt.Sprintf("/transactions/%d/%s", assetManagerID, url.PathEscape(transactionID))
	body, err := c.doRequest(ctx, http.MethodPatch, path, nil, updates)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ledger: partial amend transaction %s: %w", transactionID, err)
	}

	return decodeTransaction(body)
}

// RetrieveTransaction fetches the latest version, or the exact historical
// snapshot when version > 0. Historical snapshots are read-only; amending
// one fails at the authority rather than silently overwriting.
func (c *Client) RetrieveTransaction(ctx context.Context, assetManagerID int64, transactionID string, version int64) (domain.Transaction, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return domain.Transaction{}, err
	}

	var query url.Values
	if version > 0 {
		query = url.Values{}
		query.Set("version", strconv.FormatInt(version, 10))
	}

	path := fmt.Sprintf("/transactions/%d/%s", assetManagerID, url.PathEscape(transactionID))
	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ledger: retrieve transaction %s: %w", transactionID, err)
	}

	return decodeTransaction(body)
}

// CancelTransaction soft-destroys the record: the authority flips its
// status rather than deleting it, and returns the updated copy.
func (c *Client) CancelTransaction(ctx context.Context, assetManagerID int64, transactionID string) (domain.Transaction, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return domain.Transaction{}, err
	}

	path := fmt.Sprintf("/transactions/%d/%s", assetManagerID, url.PathEscape(transactionID))
	body, err := c.doRequest(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ledger: cancel transaction %s: %w", transactionID, err)
	}

	return decodeTransaction(body)
}

// TransactionsByAssetManager returns every transaction in the owner scope.
func (c *Client) TransactionsByAssetManager(ctx context.Context, assetManagerID int64) ([]domain.Transaction, error) {
	return c.SearchTransactions(ctx, assetManagerID, domain.TransactionQuery{})
}

// SearchTransactions runs the multi-predicate search. Results come back
// sorted by transaction id so paging is stable regardless of the
// authority's internal ordering.
func (c *Client) SearchTransactions(ctx context.Context, assetManagerID int64, q domain.TransactionQuery) ([]domain.Transaction, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return nil, err
	}

	query := url.Values{}
	setList(query, "transaction_ids", q.TransactionIDs)
	setList(query, "transaction_statuses", statusStrings(q.TransactionStatuses))
	setList(query, "asset_book_ids", q.AssetBookIDs)
	setList(query, "counterparty_book_ids", q.CounterpartyBookIDs)
	setList(query, "asset_ids", q.AssetIDs)
	setDate(query, "transaction_date_start", q.TransactionDateStart)
	setDate(query, "transaction_date_end", q.TransactionDateEnd)
	setList(query, "code_types", q.CodeTypes)
	setList(query, "code_values", q.CodeValues)
	setList(query, "link_types", q.LinkTypes)
	setList(query, "linked_transaction_ids", q.LinkedTransactionIDs)
	setList(query, "party_types", q.PartyTypes)
	setList(query, "party_ids", q.PartyIDs)
	setList(query, "reference_types", q.ReferenceTypes)
	setList(query, "reference_values", q.ReferenceValues)
	setList(query, "client_ids", q.ClientIDs)
	setPaging(query, q.Paging)

	path := fmt.Sprintf("/transactions/%d", assetManagerID)
	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: search transactions for %d: %w", assetManagerID, err)
	}

	txns, err := decodeTransactions(body)
	if err != nil {
		return nil, err
	}
	sort.Slice(txns, func(i, j int) bool {
		return txns[i].TransactionID < txns[j].TransactionID
	})
	return txns, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

func validateOwner(assetManagerID int64) error {
	if assetManagerID < 1 {
		return fmt.Errorf("%w: asset manager id must be >= 1, got %d", domain.ErrValidation, assetManagerID)
	}
	return nil
}

func decodeTransaction(body []byte) (domain.Transaction, error) {
	var api APITransaction
	if err := json.Unmarshal(body, &api); err != nil {
		return domain.Transaction{}, fmt.Errorf("ledger: decode transaction: %w", err)
	}
	return api.ToDomain(), nil
}

func decodeTransactions(body []byte) ([]domain.Transaction, error) {
	var apis []APITransaction
	if err := json.Unmarshal(body, &apis); err != nil {
		return nil, fmt.Errorf("ledger: decode transactions: %w", err)
	}
	txns := make([]domain.Transaction, 0, len(apis))
	for i := range apis {
		txns = append(txns, apis[i].ToDomain())
	}
	return txns, nil
}

func setList(query url.Values, key string, values []string) {
	if len(values) > 0 {
		query.Set(key, strings.Join(values, ","))
	}
}

func setDate(query url.Values, key string, t time.Time) {
	if !t.IsZero() {
		query.Set(key, t.Format(dateLayout))
	}
}

func setPaging(query url.Values, p domain.Paging) {
	if p.PageSize > 0 {
		query.Set("page_no", strconv.Itoa(p.PageNo))
		query.Set("page_size", strconv.Itoa(p.PageSize))
	}
}

func statusStrings(statuses []domain.TransactionStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
