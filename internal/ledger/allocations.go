package ledger

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// apiAllocationSpec is the wire form of a single allocation override.
type apiAllocationSpec struct {
	Quantity           string `json:"quantity,omitempty"`
	AssetBookID        string `json:"asset_book_id,omitempty"`
	CounterpartyBookID string `json:"counterparty_book_id,omitempty"`
	ClientID           string `json:"client_id,omitempty"`
}

// AllocateTransaction splits a block transaction into one child allocation
// per spec, tagged with allocationType. The response preserves request
// order: allocation N in the request is transaction N in the result.
func (c *Client) AllocateTransaction(ctx context.Context, assetManagerID int64, transactionID, allocationType string, specs []domain.AllocationSpec) ([]domain.Transaction, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return nil, err
	}
	if transactionID == "" {
		return nil, fmt.Errorf("%w: parent transaction id must not be empty", domain.ErrValidation)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: allocation requires at least one spec", domain.ErrValidation)
	}
	if allocationType == "" {
		return nil, fmt.Errorf("%w: allocation type must not be empty", domain.ErrValidation)
	}

	payload := make([]apiAllocationSpec, 0, len(specs))
	for _, spec := range specs {
		api := apiAllocationSpec{
			AssetBookID:        spec.AssetBookID,
			CounterpartyBookID: spec.CounterpartyBookID,
			ClientID:           spec.ClientID,
		}
		if spec.Quantity != nil {
			api.Quantity = spec.Quantity.String()
		}
		payload = append(payload, api)
	}

	query := url.Values{}
	query.Set("allocation_type", allocationType)

	path := fmt.Sprintf("/allocations/%d/%s", assetManagerID, url.PathEscape(transactionID))
	body, err := c.doRequest(ctx, http.MethodPost, path, query, payload)
	if err != nil {
		return nil, fmt.Errorf("ledger: allocate transaction %s: %w", transactionID, err)
	}

	allocations, err := decodeTransactions(body)
	if err != nil {
		return nil, err
	}
	if len(allocations) != len(specs) {
		return nil, fmt.Errorf("%w: requested %d allocations, authority returned %d",
			domain.ErrIntegrity, len(specs), len(allocations))
	}
	return allocations, nil
}

// RetrieveAllocations fetches every allocation previously created for the
// given parent transaction.
func (c *Client) RetrieveAllocations(ctx context.Context, assetManagerID int64, transactionID string) ([]domain.Transaction, error) {
	if err := validateOwner(assetManagerID); err != nil {
		return nil, err
	}
	if transactionID == "" {
		return nil, fmt.Errorf("%w: parent transaction id must not be empty", domain.ErrValidation)
	}

	path := fmt.Sprintf("/allocations/%d/%s", assetManagerID, url.PathEscape(transactionID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: retrieve allocations for %s: %w", transactionID, err)
	}

	return decodeTransactions(body)
}
