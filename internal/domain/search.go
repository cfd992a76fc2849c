package domain

import "time"

// Paging controls result windows for search calls. PageNo is zero-based;
// PageSize of 0 means the authority default. Total ordering across pages is
// stable (primary identifier) so repeated paging neither skips nor
// duplicates records absent concurrent writes.
type Paging struct {
	PageNo   int
	PageSize int
}

// TransactionQuery is the multi-predicate transaction search. Every
// predicate is optional; supplied predicates AND together, and each
// list-valued predicate matches any of its values.
type TransactionQuery struct {
	TransactionIDs       []string
	TransactionStatuses  []TransactionStatus
	AssetBookIDs         []string
	CounterpartyBookIDs  []string
	AssetIDs             []string
	TransactionDateStart time.Time
	TransactionDateEnd   time.Time
	CodeTypes            []string
	CodeValues           []string
	LinkTypes            []string
	LinkedTransactionIDs []string
	PartyTypes           []string
	PartyIDs             []string
	ReferenceTypes       []string
	ReferenceValues      []string
	ClientIDs            []string

	Paging
}

// PositionQuery is the multi-predicate position search.
type PositionQuery struct {
	BookIDs         []string
	AccountIDs      []string
	AccountingTypes []string
	AssetIDs        []string
	PositionDate    time.Time
	IncludeCash     bool

	Paging
}
