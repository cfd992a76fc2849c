package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alphaledger/ledgerd/internal/domain"
)

// hydrateConcurrency bounds the parallel member fetches during hydration.
const hydrateConcurrency = 8

// NettingAuthority is the remote netting surface the resolver depends on.
// *ledger.Client satisfies it.
type NettingAuthority interface {
	NetTransactions(ctx context.Context, assetManagerID int64, transactionIDs []string, nettingType string) (domain.Transaction, error)
	RetrieveNettingSet(ctx context.Context, assetManagerID int64, transactionID string) (domain.NettingSet, error)
	RetrieveTransaction(ctx context.Context, assetManagerID int64, transactionID string, version int64) (domain.Transaction, error)
}

// NettingResolver nets transactions and resolves netting sets. Netting is
// authority-side; the resolver adds local preconditions, journaling, and
// member hydration.
type NettingResolver struct {
	authority NettingAuthority
	journal   domain.JournalStore
	logger    *slog.Logger
}

// NewNettingResolver creates a NettingResolver with all required
// dependencies.
func NewNettingResolver(
	authority NettingAuthority,
	journal domain.JournalStore,
	logger *slog.Logger,
) *NettingResolver {
	return &NettingResolver{
		authority: authority,
		journal:   journal,
		logger:    logger,
	}
}

// Net submits the member list for netting and returns the net transaction.
// Duplicated member ids are rejected locally; the authority would net the
// same transaction twice.
func (r *NettingResolver) Net(ctx context.Context, assetManagerID int64, transactionIDs []string, nettingType string) (domain.Transaction, error) {
	seen := make(map[string]struct{}, len(transactionIDs))
	for _, id := range transactionIDs {
		if _, dup := seen[id]; dup {
			return domain.Transaction{}, fmt.Errorf("%w: duplicate netting member %s", domain.ErrValidation, id)
		}
		seen[id] = struct{}{}
	}

	net, err := r.authority.NetTransactions(ctx, assetManagerID, transactionIDs, nettingType)
	if err != nil {
		r.record(ctx, assetManagerID, "", transactionIDs, err)
		return domain.Transaction{}, fmt.Errorf("netting_resolver: net: %w", err)
	}

	r.record(ctx, assetManagerID, net.TransactionID, transactionIDs, nil)

	r.logger.InfoContext(ctx, "netting_resolver: transactions netted",
		slog.String("net_transaction_id", net.TransactionID),
		slog.Int("member_count", len(transactionIDs)),
	)

	return net, nil
}

// ResolveSet resolves the whole netting set from any single member or from
// the net transaction itself.
func (r *NettingResolver) ResolveSet(ctx context.Context, assetManagerID int64, transactionID string) (domain.NettingSet, error) {
	set, err := r.authority.RetrieveNettingSet(ctx, assetManagerID, transactionID)
	if err != nil {
		return domain.NettingSet{}, fmt.Errorf("netting_resolver: resolve set for %s: %w", transactionID, err)
	}
	return set, nil
}

// HydrateMembers re-fetches every member of the set at its current version,
// fanning the point retrievals out concurrently. The authority's set
// response may carry members as they stood at netting time; hydration makes
// them current. Member order is preserved.
func (r *NettingResolver) HydrateMembers(ctx context.Context, assetManagerID int64, set domain.NettingSet) (domain.NettingSet, error) {
	hydrated := domain.NettingSet{
		NetTransactionID: set.NetTransactionID,
		Members:          make([]domain.Transaction, len(set.Members)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)

	for i := range set.Members {
		g.Go(func() error {
			tx, err := r.authority.RetrieveTransaction(gctx, assetManagerID, set.Members[i].TransactionID, 0)
			if err != nil {
				return fmt.Errorf("hydrate member %s: %w", set.Members[i].TransactionID, err)
			}
			hydrated.Members[i] = tx
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.NettingSet{}, fmt.Errorf("netting_resolver: %w", err)
	}

	return hydrated, nil
}

func (r *NettingResolver) record(ctx context.Context, assetManagerID int64, netID string, memberIDs []string, opErr error) {
	entry := domain.JournalEntry{
		Operation:      "transaction_net",
		AssetManagerID: assetManagerID,
		EntityKind:     domain.KindTransaction,
		EntityID:       netID,
		Outcome:        domain.OutcomeOK,
		Detail: map[string]any{
			"member_ids": memberIDs,
		},
	}
	if opErr != nil {
		entry.Outcome = domain.OutcomeError
		entry.Detail["error"] = opErr.Error()
	}

	if err := r.journal.Record(ctx, entry); err != nil {
		r.logger.WarnContext(ctx, "netting_resolver: journal write failed",
			slog.String("net_transaction_id", netID),
			slog.String("error", err.Error()),
		)
	}
}
