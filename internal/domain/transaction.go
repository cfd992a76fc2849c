package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionAction describes the economic direction of a trade.
type TransactionAction string

const (
	ActionBuy     TransactionAction = "Buy"
	ActionSell    TransactionAction = "Sell"
	ActionDeliver TransactionAction = "Deliver"
	ActionReceive TransactionAction = "Receive"
)

// TransactionStatus tracks the transaction lifecycle at the authority.
type TransactionStatus string

const (
	TransactionStatusNew       TransactionStatus = "New"
	TransactionStatusAmended   TransactionStatus = "Amended"
	TransactionStatusCancelled TransactionStatus = "Cancelled"
	TransactionStatusNetted    TransactionStatus = "Netted"
)

// Transaction is a single trade record: a versioned entity core, the trade
// economics, and six keyed child collections. Instances are exclusively
// owned by the caller until submitted; the authoritative copy returned by a
// mutating call replaces the local one.
type Transaction struct {
	VersionedEntity

	TransactionID      string
	AssetID            string
	AssetBookID        string
	CounterpartyBookID string
	Action             TransactionAction
	Quantity           decimal.Decimal
	Price              decimal.Decimal
	Currency           string
	TransactionType    string
	TransactionStatus  TransactionStatus
	TransactionDate    time.Time
	SettlementDate     time.Time

	Charges    Children[Charge]
	Codes      Children[Code]
	Comments   Children[Comment]
	Links      LinkSet
	Parties    Children[Party]
	References Children[Reference]
}

// NewTransaction builds a transaction with a generated identifier, Active
// status, and New transaction status. Quantity and price must already be
// exact decimals; use ParseDecimal for untyped input.
func NewTransaction(assetManagerID int64, assetID, assetBookID, counterpartyBookID string,
	action TransactionAction, quantity, price decimal.Decimal, currency string) *Transaction {
	return &Transaction{
		VersionedEntity: VersionedEntity{
			AssetManagerID: assetManagerID,
			Status:         StatusActive,
		},
		TransactionID:      uuid.NewString(),
		AssetID:            assetID,
		AssetBookID:        assetBookID,
		CounterpartyBookID: counterpartyBookID,
		Action:             action,
		Quantity:           quantity,
		Price:              price,
		Currency:           currency,
		TransactionType:    "Trade",
		TransactionStatus:  TransactionStatusNew,
	}
}

// GrossSettlement returns quantity * price.
func (t *Transaction) GrossSettlement() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}

// NetSettlement returns the gross settlement adjusted by every active
// net-affecting charge.
func (t *Transaction) NetSettlement() decimal.Decimal {
	net := t.GrossSettlement()
	t.Charges.Each(func(_ string, c Charge) {
		if c.Active && c.NetAffecting {
			net = net.Sub(c.Amount)
		}
	})
	return net
}

// Equal reports whether two transactions carry the same domain state: every
// scalar trade field and every child collection with the same tags and the
// same ordered members. Server-populated audit fields (version, created/
// updated stamps) are excluded so a round trip through the authority
// compares clean.
func (t *Transaction) Equal(other *Transaction) bool {
	if t.AssetManagerID != other.AssetManagerID ||
		t.TransactionID != other.TransactionID ||
		t.AssetID != other.AssetID ||
		t.AssetBookID != other.AssetBookID ||
		t.CounterpartyBookID != other.CounterpartyBookID ||
		t.Action != other.Action ||
		t.Currency != other.Currency ||
		t.TransactionType != other.TransactionType ||
		t.TransactionStatus != other.TransactionStatus ||
		t.Status != other.Status {
		return false
	}
	if !t.Quantity.Equal(other.Quantity) || !t.Price.Equal(other.Price) {
		return false
	}
	if !t.TransactionDate.Equal(other.TransactionDate) || !t.SettlementDate.Equal(other.SettlementDate) {
		return false
	}
	if !t.Charges.EqualFunc(&other.Charges, chargeEqual) {
		return false
	}
	if !t.Codes.EqualFunc(&other.Codes, func(a, b Code) bool { return a == b }) {
		return false
	}
	if !t.Comments.EqualFunc(&other.Comments, func(a, b Comment) bool { return a == b }) {
		return false
	}
	if !t.Links.Equal(&other.Links) {
		return false
	}
	if !t.Parties.EqualFunc(&other.Parties, func(a, b Party) bool { return a == b }) {
		return false
	}
	return t.References.EqualFunc(&other.References, func(a, b Reference) bool { return a == b })
}

func chargeEqual(a, b Charge) bool {
	return a.Amount.Equal(b.Amount) &&
		a.Currency == b.Currency &&
		a.Active == b.Active &&
		a.NetAffecting == b.NetAffecting
}
