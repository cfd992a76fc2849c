package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphaledger/ledgerd/internal/domain"
)

type fakePositionAuthority struct {
	searchFn    func(ctx context.Context, owner int64, q domain.PositionQuery) ([]domain.Position, error)
	listFn      func(ctx context.Context, owner int64) ([]domain.Position, error)
	searchCalls int
}

func (f *fakePositionAuthority) PositionsByAssetManager(ctx context.Context, owner int64, bookIDs ...string) ([]domain.Position, error) {
	return f.listFn(ctx, owner)
}

func (f *fakePositionAuthority) PositionsByAssetManagerBook(ctx context.Context, owner int64, bookID string) ([]domain.Position, error) {
	return f.listFn(ctx, owner)
}

func (f *fakePositionAuthority) SearchPositions(ctx context.Context, owner int64, q domain.PositionQuery) ([]domain.Position, error) {
	f.searchCalls++
	return f.searchFn(ctx, owner, q)
}

var _ PositionAuthority = (*fakePositionAuthority)(nil)

func newServicePosition(t *testing.T, book, asset, quantity string) domain.Position {
	t.Helper()
	pos, err := domain.NewPosition(1, book, "ACC-1", "Transaction Date", asset, quantity)
	require.NoError(t, err)
	return *pos
}

func TestPositionServiceHolding(t *testing.T) {
	cache := newFakeCache()
	pos := newServicePosition(t, "BOOK-A", "AAPL", "250.5")
	authority := &fakePositionAuthority{
		searchFn: func(_ context.Context, owner int64, q domain.PositionQuery) ([]domain.Position, error) {
			assert.Equal(t, []string{"BOOK-A"}, q.BookIDs)
			assert.Equal(t, []string{"AAPL"}, q.AssetIDs)
			return []domain.Position{pos}, nil
		},
	}
	svc := NewPositionService(authority, cache, testLogger(t))

	got, err := svc.Holding(context.Background(), 1, "BOOK-A", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "250.5", got.Quantity().String())
	assert.Equal(t, 1, authority.searchCalls)
	assert.True(t, cache.hasPosition(1, "BOOK-A", "AAPL"))

	// Second lookup is a cache hit.
	_, err = svc.Holding(context.Background(), 1, "BOOK-A", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, authority.searchCalls)
}

func TestPositionServiceHoldingNotFound(t *testing.T) {
	authority := &fakePositionAuthority{
		searchFn: func(_ context.Context, owner int64, q domain.PositionQuery) ([]domain.Position, error) {
			return nil, nil
		},
	}
	svc := NewPositionService(authority, newFakeCache(), testLogger(t))

	_, err := svc.Holding(context.Background(), 1, "BOOK-A", "AAPL")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPositionServiceHoldingAmbiguous(t *testing.T) {
	a := newServicePosition(t, "BOOK-A", "AAPL", "1")
	b := newServicePosition(t, "BOOK-A", "AAPL", "2")
	authority := &fakePositionAuthority{
		searchFn: func(_ context.Context, owner int64, q domain.PositionQuery) ([]domain.Position, error) {
			return []domain.Position{a, b}, nil
		},
	}
	svc := NewPositionService(authority, newFakeCache(), testLogger(t))

	_, err := svc.Holding(context.Background(), 1, "BOOK-A", "AAPL")
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestPositionServiceListCachesResults(t *testing.T) {
	cache := newFakeCache()
	a := newServicePosition(t, "BOOK-A", "AAPL", "10")
	b := newServicePosition(t, "BOOK-B", "MSFT", "20")
	authority := &fakePositionAuthority{
		listFn: func(_ context.Context, owner int64) ([]domain.Position, error) {
			return []domain.Position{a, b}, nil
		},
	}
	svc := NewPositionService(authority, cache, testLogger(t))

	positions, err := svc.ByAssetManager(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, positions, 2)
	assert.True(t, cache.hasPosition(1, "BOOK-A", "AAPL"))
	assert.True(t, cache.hasPosition(1, "BOOK-B", "MSFT"))
}

func TestPositionServiceInvalidate(t *testing.T) {
	cache := newFakeCache()
	pos := newServicePosition(t, "BOOK-A", "AAPL", "10")
	require.NoError(t, cache.SetPosition(context.Background(), pos))

	svc := NewPositionService(&fakePositionAuthority{}, cache, testLogger(t))
	svc.Invalidate(context.Background(), 1, "BOOK-A", "AAPL")
	assert.False(t, cache.hasPosition(1, "BOOK-A", "AAPL"))
}
