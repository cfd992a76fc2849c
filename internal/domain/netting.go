package domain

// NettingSet groups the member transactions that collapse into one net
// transaction for settlement. Lookup works by querying with any single
// member.
type NettingSet struct {
	NetTransactionID string
	Members          []Transaction
}

// MemberIDs returns the member transaction identifiers in the order the
// authority returned them.
func (ns NettingSet) MemberIDs() []string {
	ids := make([]string, 0, len(ns.Members))
	for i := range ns.Members {
		ids = append(ids, ns.Members[i].TransactionID)
	}
	return ids
}

// Contains reports whether transactionID is a member of the set.
func (ns NettingSet) Contains(transactionID string) bool {
	for i := range ns.Members {
		if ns.Members[i].TransactionID == transactionID {
			return true
		}
	}
	return false
}
