package domain

// Link points at another transaction owned by the same asset manager.
type Link struct {
	TransactionID string
	Active        bool
}

// LinkSet is the transaction-to-transaction link collection. Unlike the
// other child collections its multiplicity is load-bearing: three links
// under "Multiple" is a distinct state from four, and duplicate
// (tag, target) pairs are a legal state.
type LinkSet struct {
	Children[Link]
}

// AddLink appends a link to transactionID under the given type tag. It
// always appends; re-adding an existing pair creates a second entry.
func (l *LinkSet) AddLink(tag, transactionID string) {
	l.Add(tag, Link{TransactionID: transactionID, Active: true})
}

// RemoveLink removes exactly one (tag, transactionID) pair: the first exact
// match in insertion order. Removing an absent pair reports ErrNotFound so
// caller bookkeeping errors surface instead of disappearing.
func (l *LinkSet) RemoveLink(tag, transactionID string) error {
	return l.Remove(tag, func(lk Link) bool {
		return lk.TransactionID == transactionID
	})
}

// Linked returns the target transaction IDs under tag, in insertion order.
func (l *LinkSet) Linked(tag string) []string {
	links := l.Get(tag)
	ids := make([]string, 0, len(links))
	for _, lk := range links {
		ids = append(ids, lk.TransactionID)
	}
	return ids
}

// Equal reports whether both link sets hold the same tags with the same
// ordered targets.
func (l *LinkSet) Equal(other *LinkSet) bool {
	return l.EqualFunc(&other.Children, func(a, b Link) bool {
		return a.TransactionID == b.TransactionID && a.Active == b.Active
	})
}
