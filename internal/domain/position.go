package domain

import "github.com/shopspring/decimal"

// Position is a quantity held in a book/account for an asset. The quantity
// is a hard invariant: it is always an exact decimal, never a binary float
// approximation, so every write path goes through ParseDecimal.
type Position struct {
	VersionedEntity

	BookID         string
	AccountID      string
	AccountingType string
	AssetID        string
	ClientID       string

	quantity decimal.Decimal
}

// NewPosition builds a position, coercing quantity through ParseDecimal.
// It fails with ErrValidation on non-numeric input rather than defaulting
// to zero.
func NewPosition(assetManagerID int64, bookID, accountID, accountingType, assetID string, quantity any) (*Position, error) {
	p := &Position{
		VersionedEntity: VersionedEntity{
			AssetManagerID: assetManagerID,
			Status:         StatusActive,
		},
		BookID:         bookID,
		AccountID:      accountID,
		AccountingType: accountingType,
		AssetID:        assetID,
	}
	if err := p.SetQuantity(quantity); err != nil {
		return nil, err
	}
	return p, nil
}

// Quantity returns the exact-decimal quantity.
func (p *Position) Quantity() decimal.Decimal {
	return p.quantity
}

// SetQuantity replaces the quantity, coercing through ParseDecimal so the
// exact-decimal invariant holds on every subsequent assignment too.
func (p *Position) SetQuantity(v any) error {
	d, err := ParseDecimal(v)
	if err != nil {
		return err
	}
	p.quantity = d
	return nil
}
