package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MTMResult is a mark-to-market valuation for one asset in one book on a
// business date. It follows the same versioning contract as transactions.
type MTMResult struct {
	VersionedEntity

	BookID       string
	AssetID      string
	MTMValue     decimal.Decimal
	MTMStatus    string
	BusinessDate time.Time
	MessageDate  time.Time
}

// TransactionPNL is a per-transaction profit-and-loss result for a
// business date and period (e.g. "DTD", "MTD", "YTD").
type TransactionPNL struct {
	VersionedEntity

	TransactionID string
	BookID        string
	AssetID       string
	Period        string
	BusinessDate  time.Time
	TotalPNL      decimal.Decimal
	AssetPNL      decimal.Decimal
	FXPNL         decimal.Decimal
	Currency      string
}

// PositionPNL is a per-position profit-and-loss result for a business date
// and period.
type PositionPNL struct {
	VersionedEntity

	BookID       string
	AssetID      string
	Period       string
	BusinessDate time.Time
	TotalPNL     decimal.Decimal
	AssetPNL     decimal.Decimal
	FXPNL        decimal.Decimal
	Currency     string
	Quantity     decimal.Decimal
}

// ClearResult reports the irreversible bulk-clear counts.
type ClearResult struct {
	TransactionCount int64
	PositionCount    int64
}
