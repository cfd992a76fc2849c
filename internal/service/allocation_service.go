package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// AllocationAuthority is the remote allocation surface the splitter depends
// on. *ledger.Client satisfies it.
type AllocationAuthority interface {
	AllocateTransaction(ctx context.Context, assetManagerID int64, transactionID, allocationType string, specs []domain.AllocationSpec) ([]domain.Transaction, error)
	RetrieveAllocations(ctx context.Context, assetManagerID int64, transactionID string) ([]domain.Transaction, error)
	RetrieveTransaction(ctx context.Context, assetManagerID int64, transactionID string, version int64) (domain.Transaction, error)
}

// AllocationSplitter splits block transactions into child allocations. The
// authority performs the split; the splitter enforces quantity conservation
// up front and verifies it on the result.
type AllocationSplitter struct {
	authority AllocationAuthority
	journal   domain.JournalStore
	logger    *slog.Logger
}

// NewAllocationSplitter creates an AllocationSplitter with all required
// dependencies.
func NewAllocationSplitter(
	authority AllocationAuthority,
	journal domain.JournalStore,
	logger *slog.Logger,
) *AllocationSplitter {
	return &AllocationSplitter{
		authority: authority,
		journal:   journal,
		logger:    logger,
	}
}

// Allocate splits the parent transaction into one child per spec. Specs with
// an explicit quantity must sum to no more than the parent quantity; specs
// without one share the remainder on the authority side. The children come
// back in spec order, their quantities must sum exactly to the parent's, and
// each must link back to the parent under the allocation type tag.
func (s *AllocationSplitter) Allocate(ctx context.Context, assetManagerID int64, transactionID, allocationType string, specs []domain.AllocationSpec) ([]domain.Transaction, error) {
	parent, err := s.authority.RetrieveTransaction(ctx, assetManagerID, transactionID, 0)
	if err != nil {
		return nil, fmt.Errorf("allocation_splitter: retrieve parent %s: %w", transactionID, err)
	}

	if err := validateSpecQuantities(parent.Quantity, specs); err != nil {
		return nil, err
	}

	children, err := s.authority.AllocateTransaction(ctx, assetManagerID, transactionID, allocationType, specs)
	if err != nil {
		s.record(ctx, assetManagerID, transactionID, allocationType, len(specs), err)
		return nil, fmt.Errorf("allocation_splitter: allocate %s: %w", transactionID, err)
	}

	var total decimal.Decimal
	for i := range children {
		total = total.Add(children[i].Quantity)
	}
	if !total.Equal(parent.Quantity) {
		return nil, fmt.Errorf("%w: allocations of %s sum to %s, parent quantity is %s",
			domain.ErrIntegrity, transactionID, total, parent.Quantity)
	}
	for i, spec := range specs {
		if spec.Quantity != nil && !children[i].Quantity.Equal(*spec.Quantity) {
			return nil, fmt.Errorf("%w: allocation %d of %s has quantity %s, spec asked for %s",
				domain.ErrIntegrity, i, transactionID, children[i].Quantity, spec.Quantity)
		}
	}
	for i := range children {
		if !linksTo(&children[i], allocationType, transactionID) {
			return nil, fmt.Errorf("%w: allocation %d of %s carries no %q link back to its parent",
				domain.ErrIntegrity, i, transactionID, allocationType)
		}
	}

	s.record(ctx, assetManagerID, transactionID, allocationType, len(specs), nil)

	s.logger.InfoContext(ctx, "allocation_splitter: transaction allocated",
		slog.String("transaction_id", transactionID),
		slog.String("allocation_type", allocationType),
		slog.Int("child_count", len(children)),
	)

	return children, nil
}

// Allocations fetches every child previously allocated from the parent.
func (s *AllocationSplitter) Allocations(ctx context.Context, assetManagerID int64, transactionID string) ([]domain.Transaction, error) {
	children, err := s.authority.RetrieveAllocations(ctx, assetManagerID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("allocation_splitter: retrieve allocations for %s: %w", transactionID, err)
	}
	return children, nil
}

// linksTo reports whether the child carries a link of the given type back to
// the parent transaction.
func linksTo(child *domain.Transaction, tag, parentID string) bool {
	for _, id := range child.Links.Linked(tag) {
		if id == parentID {
			return true
		}
	}
	return false
}

// validateSpecQuantities rejects splits that cannot conserve the parent
// quantity. Explicit quantities must be positive; their sum must not exceed
// the parent, and must equal it exactly when every spec is explicit.
func validateSpecQuantities(parentQuantity decimal.Decimal, specs []domain.AllocationSpec) error {
	var explicit decimal.Decimal
	allExplicit := true
	for i, spec := range specs {
		if spec.Quantity == nil {
			allExplicit = false
			continue
		}
		if !spec.Quantity.IsPositive() {
			return fmt.Errorf("%w: allocation %d quantity must be positive, got %s",
				domain.ErrValidation, i, spec.Quantity)
		}
		explicit = explicit.Add(*spec.Quantity)
	}

	if explicit.GreaterThan(parentQuantity) {
		return fmt.Errorf("%w: allocation quantities sum to %s, parent holds only %s",
			domain.ErrValidation, explicit, parentQuantity)
	}
	if allExplicit && !explicit.Equal(parentQuantity) {
		return fmt.Errorf("%w: allocation quantities sum to %s, must equal parent quantity %s",
			domain.ErrValidation, explicit, parentQuantity)
	}
	return nil
}

func (s *AllocationSplitter) record(ctx context.Context, assetManagerID int64, transactionID, allocationType string, count int, opErr error) {
	entry := domain.JournalEntry{
		Operation:      "transaction_allocate",
		AssetManagerID: assetManagerID,
		EntityKind:     domain.KindTransaction,
		EntityID:       transactionID,
		Outcome:        domain.OutcomeOK,
		Detail: map[string]any{
			"allocation_type": allocationType,
			"spec_count":      count,
		},
	}
	if opErr != nil {
		entry.Outcome = domain.OutcomeError
		entry.Detail["error"] = opErr.Error()
	}

	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "allocation_splitter: journal write failed",
			slog.String("transaction_id", transactionID),
			slog.String("error", err.Error()),
		)
	}
}
