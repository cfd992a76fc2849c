package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BookTransfer is the ephemeral request for a same-owner inventory move
// between two books. It is never persisted as its own entity; the
// authority expands it into exactly two transactions that share the wash
// book as counterparty.
type BookTransfer struct {
	AssetManagerID int64
	AssetID        string
	SourceBookID   string
	TargetBookID   string
	WashBookID     string
	Quantity       decimal.Decimal
	Price          decimal.Decimal
	Currency       string
}

// Validate checks the transfer locally before any remote call.
func (bt BookTransfer) Validate() error {
	if bt.AssetManagerID < 1 {
		return fmt.Errorf("%w: asset manager id must be >= 1", ErrValidation)
	}
	if bt.AssetID == "" {
		return fmt.Errorf("%w: asset id must not be empty", ErrValidation)
	}
	if bt.SourceBookID == "" || bt.TargetBookID == "" || bt.WashBookID == "" {
		return fmt.Errorf("%w: source, target, and wash book ids must all be set", ErrValidation)
	}
	if bt.SourceBookID == bt.TargetBookID {
		return fmt.Errorf("%w: source and target books must differ", ErrValidation)
	}
	if !bt.Quantity.IsPositive() {
		return fmt.Errorf("%w: transfer quantity must be positive, got %s", ErrValidation, bt.Quantity)
	}
	if !bt.Price.IsPositive() {
		return fmt.Errorf("%w: transfer price must be positive, got %s", ErrValidation, bt.Price)
	}
	if bt.Currency == "" {
		return fmt.Errorf("%w: currency must not be empty", ErrValidation)
	}
	return nil
}

// AllocationSpec is a partial field-override of a parent transaction used
// when splitting a block trade. Nil fields inherit from the parent.
type AllocationSpec struct {
	Quantity           *decimal.Decimal
	AssetBookID        string
	CounterpartyBookID string
	ClientID           string
}
