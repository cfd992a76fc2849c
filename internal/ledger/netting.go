package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// DefaultNettingType is used when the caller does not name one.
const DefaultNettingType = "Net"

// NetTransactions submits a member list for netting and returns the single
// resulting net transaction. A net of fewer than two members is meaningless
// and is rejected before any remote call.
func (c *Client) NetTransactions(ctx context.Context, assetManagerID int64, transactionIDs []string, nettingType string) (domain.Transaction, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return domain.Transaction{}, err
	}
	if len(transactionIDs) < 2 {
		return domain.Transaction{}, fmt.Errorf("%w: netting requires at least 2 transactions, got %d",
			domain.ErrValidation, len(transactionIDs))
	}
	for _, id := range transactionIDs {
		if id == "" {
			return domain.Transaction{}, fmt.Errorf("%w: netting member id must not be empty", domain.ErrValidation)
		}
	}
	if nettingType == "" {
		nettingType = DefaultNettingType
	}

	query := url.Values{}
	query.Set("netting_type", nettingType)

	path := fmt.Sprintf("/netting/%d", assetManagerID)
	body, err := c.doRequest(ctx, http.MethodPost, path, query, transactionIDs)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ledger: net %d transactions for %d: %w",
			len(transactionIDs), assetManagerID, err)
	}

	return decodeTransaction(body)
}

// RetrieveNettingSet resolves the whole netting set from any single member.
// The authority replies with a map of net transaction id to member list; a
// member belonging to more than one net is a data-integrity error and is
// surfaced, never silently resolved.
func (c *Client) RetrieveNettingSet(ctx context.Context, assetManagerID int64, transactionID string) (domain.NettingSet, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return domain.NettingSet{}, err
	}
	if transactionID == "" {
		return domain.NettingSet{}, fmt.Errorf("%w: transaction id must not be empty", domain.ErrValidation)
	}

	path := fmt.Sprintf("/netting/%d/%s", assetManagerID, url.PathEscape(transactionID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return domain.NettingSet{}, fmt.Errorf("ledger: retrieve netting set for %s: %w", transactionID, err)
	}

	var raw map[string][]APITransaction
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.NettingSet{}, fmt.Errorf("ledger: decode netting set: %w", err)
	}
	if len(raw) == 0 {
		return domain.NettingSet{}, fmt.Errorf("%w: no netting set for transaction %s", domain.ErrNotFound, transactionID)
	}
	if len(raw) > 1 {
		return domain.NettingSet{}, fmt.Errorf("%w: transaction %s resolves to %d netting sets",
			domain.ErrIntegrity, transactionID, len(raw))
	}

	var set domain.NettingSet
	for netID, members := range raw {
		set.NetTransactionID = netID
		set.Members = make([]domain.Transaction, 0, len(members))
		for i := range members {
			set.Members = append(set.Members, members[i].ToDomain())
		}
	}
	return set, nil
}
