package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// Wire conventions: monetary and quantity fields travel as exact decimals
// (shopspring's JSON form, quoted strings), dates as "2006-01-02", and
// timestamps as RFC 3339. Child collections serialize as tag -> ordered
// list, matching the authority's multimap shape.

const dateLayout = "2006-01-02"

// --------------------------------------------------------------------------
// Transaction DTOs
// --------------------------------------------------------------------------

// APICharge is a charge entry on the wire.
type APICharge struct {
	ChargeValue  decimal.Decimal `json:"charge_value"`
	Currency     string          `json:"currency"`
	Active       bool            `json:"active"`
	NetAffecting bool            `json:"net_affecting"`
}

// APICode is a code entry on the wire.
type APICode struct {
	CodeValue string `json:"code_value"`
	Active    bool   `json:"active"`
}

// APIComment is a comment entry on the wire.
type APIComment struct {
	CommentValue string `json:"comment_value"`
	Active       bool   `json:"active"`
}

// APILink is a link entry on the wire.
type APILink struct {
	LinkedTransactionID string `json:"linked_transaction_id"`
	Active              bool   `json:"active"`
}

// APIParty is a party entry on the wire.
type APIParty struct {
	PartyID string `json:"party_id"`
	Active  bool   `json:"active"`
}

// APIReference is a reference entry on the wire.
type APIReference struct {
	ReferenceValue string `json:"reference_value"`
	Active         bool   `json:"active"`
}

// APITransaction represents a transaction as the authority sends and
// receives it.
type APITransaction struct {
	AssetManagerID      int64           `json:"asset_manager_id"`
	TransactionID       string          `json:"transaction_id"`
	AssetID             string          `json:"asset_id"`
	AssetBookID         string          `json:"asset_book_id"`
	CounterpartyBookID  string          `json:"counterparty_book_id"`
	TransactionAction   string          `json:"transaction_action"`
	Quantity            decimal.Decimal `json:"quantity"`
	Price               decimal.Decimal `json:"price"`
	TransactionCurrency string          `json:"transaction_currency"`
	TransactionType     string          `json:"transaction_type"`
	TransactionStatus   string          `json:"transaction_status"`
	TransactionDate     string          `json:"transaction_date,omitempty"`
	SettlementDate      string          `json:"settlement_date,omitempty"`
	Status              string          `json:"status,omitempty"`
	Version             int64           `json:"version,omitempty"`
	CreatedBy           string          `json:"created_by,omitempty"`
	UpdatedBy           string          `json:"updated_by,omitempty"`
	CreatedTime         string          `json:"created_time,omitempty"`
	UpdatedTime         string          `json:"updated_time,omitempty"`

	Charges    map[string][]APICharge    `json:"charges,omitempty"`
	Codes      map[string][]APICode      `json:"codes,omitempty"`
	Comments   map[string][]APIComment   `json:"comments,omitempty"`
	Links      map[string][]APILink      `json:"links,omitempty"`
	Parties    map[string][]APIParty     `json:"parties,omitempty"`
	References map[string][]APIReference `json:"references,omitempty"`
}

// FromTransaction converts a domain transaction to its wire form.
func FromTransaction(t *domain.Transaction) APITransaction {
	a := APITransaction{
		AssetManagerID:      t.AssetManagerID,
		TransactionID:       t.TransactionID,
		AssetID:             t.AssetID,
		AssetBookID:         t.AssetBookID,
		CounterpartyBookID:  t.CounterpartyBookID,
		TransactionAction:   string(t.Action),
		Quantity:            t.Quantity,
		Price:               t.Price,
		TransactionCurrency: t.Currency,
		TransactionType:     t.TransactionType,
		TransactionStatus:   string(t.TransactionStatus),
		Status:              string(t.Status),
		Version:             t.Version,
		TransactionDate:     formatDate(t.TransactionDate),
		SettlementDate:      formatDate(t.SettlementDate),
	}

	t.Charges.Each(func(tag string, c domain.Charge) {
		if a.Charges == nil {
			a.Charges = make(map[string][]APICharge)
		}
		a.Charges[tag] = append(a.Charges[tag], APICharge{
			ChargeValue:  c.Amount,
			Currency:     c.Currency,
			Active:       c.Active,
			NetAffecting: c.NetAffecting,
		})
	})
	t.Codes.Each(func(tag string, c domain.Code) {
		if a.Codes == nil {
			a.Codes = make(map[string][]APICode)
		}
		a.Codes[tag] = append(a.Codes[tag], APICode{CodeValue: c.Value, Active: c.Active})
	})
	t.Comments.Each(func(tag string, c domain.Comment) {
		if a.Comments == nil {
			a.Comments = make(map[string][]APIComment)
		}
		a.Comments[tag] = append(a.Comments[tag], APIComment{CommentValue: c.Text, Active: c.Active})
	})
	t.Links.Each(func(tag string, l domain.Link) {
		if a.Links == nil {
			a.Links = make(map[string][]APILink)
		}
		a.Links[tag] = append(a.Links[tag], APILink{LinkedTransactionID: l.TransactionID, Active: l.Active})
	})
	t.Parties.Each(func(tag string, p domain.Party) {
		if a.Parties == nil {
			a.Parties = make(map[string][]APIParty)
		}
		a.Parties[tag] = append(a.Parties[tag], APIParty{PartyID: p.PartyID, Active: p.Active})
	})
	t.References.Each(func(tag string, r domain.Reference) {
		if a.References == nil {
			a.References = make(map[string][]APIReference)
		}
		a.References[tag] = append(a.References[tag], APIReference{ReferenceValue: r.Value, Active: r.Active})
	})

	return a
}

// ToDomain converts a wire transaction to its domain form.
func (a *APITransaction) ToDomain() domain.Transaction {
	t := domain.Transaction{
		VersionedEntity: domain.VersionedEntity{
			AssetManagerID: a.AssetManagerID,
			Status:         domain.Status(a.Status),
			Version:        a.Version,
			CreatedBy:      a.CreatedBy,
			UpdatedBy:      a.UpdatedBy,
			CreatedTime:    parseTime(a.CreatedTime),
			UpdatedTime:    parseTime(a.UpdatedTime),
		},
		TransactionID:      a.TransactionID,
		AssetID:            a.AssetID,
		AssetBookID:        a.AssetBookID,
		CounterpartyBookID: a.CounterpartyBookID,
		Action:             domain.TransactionAction(a.TransactionAction),
		Quantity:           a.Quantity,
		Price:              a.Price,
		Currency:           a.TransactionCurrency,
		TransactionType:    a.TransactionType,
		TransactionStatus:  domain.TransactionStatus(a.TransactionStatus),
		TransactionDate:    parseDate(a.TransactionDate),
		SettlementDate:     parseDate(a.SettlementDate),
	}

	for tag, charges := range a.Charges {
		for _, c := range charges {
			t.Charges.Add(tag, domain.Charge{
				Amount:       c.ChargeValue,
				Currency:     c.Currency,
				Active:       c.Active,
				NetAffecting: c.NetAffecting,
			})
		}
	}
	for tag, codes := range a.Codes {
		for _, c := range codes {
			t.Codes.Add(tag, domain.Code{Value: c.CodeValue, Active: c.Active})
		}
	}
	for tag, comments := range a.Comments {
		for _, c := range comments {
			t.Comments.Add(tag, domain.Comment{Text: c.CommentValue, Active: c.Active})
		}
	}
	for tag, links := range a.Links {
		for _, l := range links {
			t.Links.Add(tag, domain.Link{TransactionID: l.LinkedTransactionID, Active: l.Active})
		}
	}
	for tag, parties := range a.Parties {
		for _, p := range parties {
			t.Parties.Add(tag, domain.Party{PartyID: p.PartyID, Active: p.Active})
		}
	}
	for tag, refs := range a.References {
		for _, r := range refs {
			t.References.Add(tag, domain.Reference{Value: r.ReferenceValue, Active: r.Active})
		}
	}

	return t
}

// --------------------------------------------------------------------------
// Position DTO
// --------------------------------------------------------------------------

// APIPosition represents a position as the authority sends it.
type APIPosition struct {
	AssetManagerID int64           `json:"asset_manager_id"`
	BookID         string          `json:"book_id"`
	AccountID      string          `json:"account_id"`
	AccountingType string          `json:"accounting_type"`
	AssetID        string          `json:"asset_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	ClientID       string          `json:"client_id,omitempty"`
	Status         string          `json:"status,omitempty"`
	Version        int64           `json:"version,omitempty"`
	CreatedTime    string          `json:"created_time,omitempty"`
	UpdatedTime    string          `json:"updated_time,omitempty"`
}

// ToDomain converts a wire position to its domain form. The quantity goes
// through the same validating decimal coercion as caller-constructed
// positions.
func (a *APIPosition) ToDomain() (domain.Position, error) {
	p, err := domain.NewPosition(a.AssetManagerID, a.BookID, a.AccountID, a.AccountingType, a.AssetID, a.Quantity)
	if err != nil {
		return domain.Position{}, err
	}
	p.ClientID = a.ClientID
	if a.Status != "" {
		p.Status = domain.Status(a.Status)
	}
	p.Version = a.Version
	p.CreatedTime = parseTime(a.CreatedTime)
	p.UpdatedTime = parseTime(a.UpdatedTime)
	return *p, nil
}

// FromPosition converts a domain position to its wire form.
func FromPosition(p domain.Position) APIPosition {
	return APIPosition{
		AssetManagerID: p.AssetManagerID,
		BookID:         p.BookID,
		AccountID:      p.AccountID,
		AccountingType: p.AccountingType,
		AssetID:        p.AssetID,
		Quantity:       p.Quantity(),
		ClientID:       p.ClientID,
		Status:         string(p.Status),
		Version:        p.Version,
		CreatedTime:    formatTime(p.CreatedTime),
		UpdatedTime:    formatTime(p.UpdatedTime),
	}
}

// --------------------------------------------------------------------------
// Result DTOs
// --------------------------------------------------------------------------

// APIMTMResult represents a mark-to-market result on the wire.
type APIMTMResult struct {
	AssetManagerID int64           `json:"asset_manager_id"`
	BookID         string          `json:"book_id"`
	AssetID        string          `json:"asset_id"`
	MTMValue       decimal.Decimal `json:"mtm_value"`
	MTMStatus      string          `json:"mtm_status"`
	BusinessDate   string          `json:"business_date"`
	MessageDate    string          `json:"message_date,omitempty"`
	Version        int64           `json:"version,omitempty"`
}

// FromMTMResult converts a domain MTM result to its wire form.
func FromMTMResult(r domain.MTMResult) APIMTMResult {
	return APIMTMResult{
		AssetManagerID: r.AssetManagerID,
		BookID:         r.BookID,
		AssetID:        r.AssetID,
		MTMValue:       r.MTMValue,
		MTMStatus:      r.MTMStatus,
		BusinessDate:   formatDate(r.BusinessDate),
		MessageDate:    formatTime(r.MessageDate),
		Version:        r.Version,
	}
}

// ToDomain converts a wire MTM result to its domain form.
func (a *APIMTMResult) ToDomain() domain.MTMResult {
	return domain.MTMResult{
		VersionedEntity: domain.VersionedEntity{
			AssetManagerID: a.AssetManagerID,
			Version:        a.Version,
		},
		BookID:       a.BookID,
		AssetID:      a.AssetID,
		MTMValue:     a.MTMValue,
		MTMStatus:    a.MTMStatus,
		BusinessDate: parseDate(a.BusinessDate),
		MessageDate:  parseTime(a.MessageDate),
	}
}

// APITransactionPNL represents a transaction PnL result on the wire.
type APITransactionPNL struct {
	AssetManagerID int64           `json:"asset_manager_id"`
	TransactionID  string          `json:"transaction_id"`
	BookID         string          `json:"book_id"`
	AssetID        string          `json:"asset_id"`
	Period         string          `json:"period"`
	BusinessDate   string          `json:"business_date"`
	TotalPNL       decimal.Decimal `json:"total_pnl"`
	AssetPNL       decimal.Decimal `json:"asset_pnl"`
	FXPNL          decimal.Decimal `json:"fx_pnl"`
	Currency       string          `json:"currency"`
	Version        int64           `json:"version,omitempty"`
}

// FromTransactionPNL converts a domain transaction PnL to its wire form.
func FromTransactionPNL(r domain.TransactionPNL) APITransactionPNL {
	return APITransactionPNL{
		AssetManagerID: r.AssetManagerID,
		TransactionID:  r.TransactionID,
		BookID:         r.BookID,
		AssetID:        r.AssetID,
		Period:         r.Period,
		BusinessDate:   formatDate(r.BusinessDate),
		TotalPNL:       r.TotalPNL,
		AssetPNL:       r.AssetPNL,
		FXPNL:          r.FXPNL,
		Currency:       r.Currency,
		Version:        r.Version,
	}
}

// ToDomain converts a wire transaction PnL to its domain form.
func (a *APITransactionPNL) ToDomain() domain.TransactionPNL {
	return domain.TransactionPNL{
		VersionedEntity: domain.VersionedEntity{
			AssetManagerID: a.AssetManagerID,
			Version:        a.Version,
		},
		TransactionID: a.TransactionID,
		BookID:        a.BookID,
		AssetID:       a.AssetID,
		Period:        a.Period,
		BusinessDate:  parseDate(a.BusinessDate),
		TotalPNL:      a.TotalPNL,
		AssetPNL:      a.AssetPNL,
		FXPNL:         a.FXPNL,
		Currency:      a.Currency,
	}
}

// APIPositionPNL represents a position PnL result on the wire.
type APIPositionPNL struct {
	AssetManagerID int64           `json:"asset_manager_id"`
	BookID         string          `json:"book_id"`
	AssetID        string          `json:"asset_id"`
	Period         string          `json:"period"`
	BusinessDate   string          `json:"business_date"`
	TotalPNL       decimal.Decimal `json:"total_pnl"`
	AssetPNL       decimal.Decimal `json:"asset_pnl"`
	FXPNL          decimal.Decimal `json:"fx_pnl"`
	Currency       string          `json:"currency"`
	Quantity       decimal.Decimal `json:"quantity"`
	Version        int64           `json:"version,omitempty"`
}

// FromPositionPNL converts a domain position PnL to its wire form.
func FromPositionPNL(r domain.PositionPNL) APIPositionPNL {
	return APIPositionPNL{
		AssetManagerID: r.AssetManagerID,
		BookID:         r.BookID,
		AssetID:        r.AssetID,
		Period:         r.Period,
		BusinessDate:   formatDate(r.BusinessDate),
		TotalPNL:       r.TotalPNL,
		AssetPNL:       r.AssetPNL,
		FXPNL:          r.FXPNL,
		Currency:       r.Currency,
		Quantity:       r.Quantity,
		Version:        r.Version,
	}
}

// ToDomain converts a wire position PnL to its domain form.
func (a *APIPositionPNL) ToDomain() domain.PositionPNL {
	return domain.PositionPNL{
		VersionedEntity: domain.VersionedEntity{
			AssetManagerID: a.AssetManagerID,
			Version:        a.Version,
		},
		BookID:       a.BookID,
		AssetID:      a.AssetID,
		Period:       a.Period,
		BusinessDate: parseDate(a.BusinessDate),
		TotalPNL:     a.TotalPNL,
		AssetPNL:     a.AssetPNL,
		FXPNL:        a.FXPNL,
		Currency:     a.Currency,
		Quantity:     a.Quantity,
	}
}

// --------------------------------------------------------------------------
// Event stream DTO
// --------------------------------------------------------------------------

// APIChangeEvent is an entity-change notification frame from the stream.
type APIChangeEvent struct {
	Kind           string `json:"kind"`
	AssetManagerID int64  `json:"asset_manager_id"`
	EntityID       string `json:"entity_id"`
	BookID         string `json:"book_id,omitempty"`
	AssetID        string `json:"asset_id,omitempty"`
	Version        int64  `json:"version"`
	Timestamp      string `json:"timestamp"`
}

// ToDomain converts a wire change event to its domain form.
func (a *APIChangeEvent) ToDomain() domain.ChangeEvent {
	return domain.ChangeEvent{
		Kind:           a.Kind,
		AssetManagerID: a.AssetManagerID,
		EntityID:       a.EntityID,
		BookID:         a.BookID,
		AssetID:        a.AssetID,
		Version:        a.Version,
		Timestamp:      parseTime(a.Timestamp),
	}
}

// --------------------------------------------------------------------------
// Date helpers
// --------------------------------------------------------------------------

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// parseDate parses an authority date field (YYYY-MM-DD). Parsing is lenient:
// a malformed value decodes as the zero time, the same as an absent field,
// so one bad optional date cannot fail a whole entity decode.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// parseTime parses an authority timestamp field (RFC 3339), with the same
// leniency as parseDate.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
