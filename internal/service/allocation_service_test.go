package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphaledger/ledgerd/internal/domain"
)

type fakeAllocationAuthority struct {
	allocateFn func(ctx context.Context, owner int64, id, allocationType string, specs []domain.AllocationSpec) ([]domain.Transaction, error)
	retrieveFn func(ctx context.Context, owner int64, id string, version int64) (domain.Transaction, error)
}

func (f *fakeAllocationAuthority) AllocateTransaction(ctx context.Context, owner int64, id, allocationType string, specs []domain.AllocationSpec) ([]domain.Transaction, error) {
	return f.allocateFn(ctx, owner, id, allocationType, specs)
}

func (f *fakeAllocationAuthority) RetrieveAllocations(ctx context.Context, owner int64, id string) ([]domain.Transaction, error) {
	return nil, nil
}

func (f *fakeAllocationAuthority) RetrieveTransaction(ctx context.Context, owner int64, id string, version int64) (domain.Transaction, error) {
	return f.retrieveFn(ctx, owner, id, version)
}

var _ AllocationAuthority = (*fakeAllocationAuthority)(nil)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func childOf(parent *domain.Transaction, tag, quantity string) domain.Transaction {
	child := *newServiceTransaction()
	child.AssetManagerID = parent.AssetManagerID
	child.Quantity = decimal.RequireFromString(quantity)
	child.Links.AddLink(tag, parent.TransactionID)
	return persist(&child, 1)
}

func TestAllocationSplitterAllocate(t *testing.T) {
	parent := persist(newServiceTransaction(), 1) // quantity 100
	journal := &fakeJournal{}
	authority := &fakeAllocationAuthority{
		retrieveFn: func(context.Context, int64, string, int64) (domain.Transaction, error) {
			return parent, nil
		},
		allocateFn: func(_ context.Context, owner int64, id, allocationType string, specs []domain.AllocationSpec) ([]domain.Transaction, error) {
			assert.Equal(t, "External", allocationType)
			return []domain.Transaction{
				childOf(&parent, "External", "60"),
				childOf(&parent, "External", "40"),
			}, nil
		},
	}
	splitter := NewAllocationSplitter(authority, journal, testLogger(t))

	children, err := splitter.Allocate(context.Background(), 1, parent.TransactionID, "External", []domain.AllocationSpec{
		{Quantity: dec("60"), AssetBookID: "CLIENT-1"},
		{Quantity: dec("40"), AssetBookID: "CLIENT-2"},
	})
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "60", children[0].Quantity.String())
	assert.Equal(t, "40", children[1].Quantity.String())
	assert.Equal(t, []string{parent.TransactionID}, children[0].Links.Linked("External"))
	assert.Equal(t, []string{parent.TransactionID}, children[1].Links.Linked("External"))

	entries := journal.recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, "transaction_allocate", entries[0].Operation)
	assert.Equal(t, domain.OutcomeOK, entries[0].Outcome)
}

func TestAllocationSplitterSpecValidation(t *testing.T) {
	parent := persist(newServiceTransaction(), 1)
	authority := &fakeAllocationAuthority{
		retrieveFn: func(context.Context, int64, string, int64) (domain.Transaction, error) {
			return parent, nil
		},
		allocateFn: func(context.Context, int64, string, string, []domain.AllocationSpec) ([]domain.Transaction, error) {
			t.Fatal("authority must not be called")
			return nil, nil
		},
	}
	splitter := NewAllocationSplitter(authority, &fakeJournal{}, testLogger(t))

	tests := []struct {
		name  string
		specs []domain.AllocationSpec
	}{
		{"negative quantity", []domain.AllocationSpec{{Quantity: dec("-1")}, {}}},
		{"zero quantity", []domain.AllocationSpec{{Quantity: dec("0")}, {}}},
		{"sum exceeds parent", []domain.AllocationSpec{{Quantity: dec("80")}, {Quantity: dec("30")}}},
		{"all explicit but short of parent", []domain.AllocationSpec{{Quantity: dec("60")}, {Quantity: dec("30")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := splitter.Allocate(context.Background(), 1, parent.TransactionID, "External", tt.specs)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestAllocationSplitterOpenRemainder(t *testing.T) {
	parent := persist(newServiceTransaction(), 1) // quantity 100
	authority := &fakeAllocationAuthority{
		retrieveFn: func(context.Context, int64, string, int64) (domain.Transaction, error) {
			return parent, nil
		},
		allocateFn: func(context.Context, int64, string, string, []domain.AllocationSpec) ([]domain.Transaction, error) {
			return []domain.Transaction{
				childOf(&parent, "Internal", "70"),
				childOf(&parent, "Internal", "30"),
			}, nil
		},
	}
	splitter := NewAllocationSplitter(authority, &fakeJournal{}, testLogger(t))

	// One explicit spec, one open spec sharing the remainder.
	children, err := splitter.Allocate(context.Background(), 1, parent.TransactionID, "Internal", []domain.AllocationSpec{
		{Quantity: dec("70")},
		{},
	})
	require.NoError(t, err)
	assert.Len(t, children, 2)
}

func TestAllocationSplitterConservationViolation(t *testing.T) {
	parent := persist(newServiceTransaction(), 1) // quantity 100
	authority := &fakeAllocationAuthority{
		retrieveFn: func(context.Context, int64, string, int64) (domain.Transaction, error) {
			return parent, nil
		},
		allocateFn: func(context.Context, int64, string, string, []domain.AllocationSpec) ([]domain.Transaction, error) {
			return []domain.Transaction{
				childOf(&parent, "External", "60"),
				childOf(&parent, "External", "30"),
			}, nil
		},
	}
	splitter := NewAllocationSplitter(authority, &fakeJournal{}, testLogger(t))

	_, err := splitter.Allocate(context.Background(), 1, parent.TransactionID, "External", []domain.AllocationSpec{
		{Quantity: dec("60")},
		{},
	})
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestAllocationSplitterMissingParentLink(t *testing.T) {
	parent := persist(newServiceTransaction(), 1) // quantity 100
	authority := &fakeAllocationAuthority{
		retrieveFn: func(context.Context, int64, string, int64) (domain.Transaction, error) {
			return parent, nil
		},
		allocateFn: func(context.Context, int64, string, string, []domain.AllocationSpec) ([]domain.Transaction, error) {
			// Quantities conserve but the second child lost its link back
			// to the parent.
			orphan := *newServiceTransaction()
			orphan.Quantity = decimal.RequireFromString("40")
			return []domain.Transaction{
				childOf(&parent, "External", "60"),
				persist(&orphan, 1),
			}, nil
		},
	}
	splitter := NewAllocationSplitter(authority, &fakeJournal{}, testLogger(t))

	_, err := splitter.Allocate(context.Background(), 1, parent.TransactionID, "External", []domain.AllocationSpec{
		{Quantity: dec("60")},
		{Quantity: dec("40")},
	})
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestAllocationSplitterSpecMismatch(t *testing.T) {
	parent := persist(newServiceTransaction(), 1) // quantity 100
	authority := &fakeAllocationAuthority{
		retrieveFn: func(context.Context, int64, string, int64) (domain.Transaction, error) {
			return parent, nil
		},
		allocateFn: func(context.Context, int64, string, string, []domain.AllocationSpec) ([]domain.Transaction, error) {
			// Conserved total, but the explicit first spec got the wrong cut.
			return []domain.Transaction{
				childOf(&parent, "External", "50"),
				childOf(&parent, "External", "50"),
			}, nil
		},
	}
	splitter := NewAllocationSplitter(authority, &fakeJournal{}, testLogger(t))

	_, err := splitter.Allocate(context.Background(), 1, parent.TransactionID, "External", []domain.AllocationSpec{
		{Quantity: dec("60")},
		{},
	})
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}
