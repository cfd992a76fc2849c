package ledger

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphaledger/ledgerd/internal/domain"
)

func TestNetTransactionsValidation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.NetTransactions(context.Background(), 1, []string{"T1"}, "Net")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = c.NetTransactions(context.Background(), 1, []string{"T1", ""}, "Net")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNetTransactionsDefaultType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/netting/1", r.URL.Path)
		assert.Equal(t, "Net", r.URL.Query().Get("netting_type"))
		writeJSON(t, w, APITransaction{AssetManagerID: 1, TransactionID: "NET-1", Version: 1})
	})

	net, err := c.NetTransactions(context.Background(), 1, []string{"T1", "T2"}, "")
	require.NoError(t, err)
	assert.Equal(t, "NET-1", net.TransactionID)
}

func TestRetrieveNettingSet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/netting/1/T1", r.URL.Path)
		writeJSON(t, w, map[string][]APITransaction{
			"NET-1": {
				{AssetManagerID: 1, TransactionID: "T1"},
				{AssetManagerID: 1, TransactionID: "T2"},
			},
		})
	})

	set, err := c.RetrieveNettingSet(context.Background(), 1, "T1")
	require.NoError(t, err)
	assert.Equal(t, "NET-1", set.NetTransactionID)
	assert.Equal(t, []string{"T1", "T2"}, set.MemberIDs())
}

func TestRetrieveNettingSetEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string][]APITransaction{})
	})
	_, err := c.RetrieveNettingSet(context.Background(), 1, "T1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRetrieveNettingSetAmbiguous(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string][]APITransaction{
			"NET-1": {{TransactionID: "T1"}},
			"NET-2": {{TransactionID: "T1"}},
		})
	})
	_, err := c.RetrieveNettingSet(context.Background(), 1, "T1")
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}

func clientTransfer() domain.BookTransfer {
	return domain.BookTransfer{
		AssetManagerID: 1,
		AssetID:        "AAPL",
		SourceBookID:   "BOOK-A",
		TargetBookID:   "BOOK-B",
		WashBookID:     "WASH",
		Quantity:       decimal.RequireFromString("10"),
		Price:          decimal.RequireFromString("12.5"),
		Currency:       "USD",
	}
}

func TestBookTransferLegs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/book_transfer/1", r.URL.Path)
		writeJSON(t, w, []APITransaction{
			{AssetManagerID: 1, TransactionID: "DELIVER-1", Version: 1},
			{AssetManagerID: 1, TransactionID: "RECEIVE-1", Version: 1},
		})
	})

	deliver, receive, err := c.BookTransfer(context.Background(), clientTransfer())
	require.NoError(t, err)
	assert.Equal(t, "DELIVER-1", deliver.TransactionID)
	assert.Equal(t, "RECEIVE-1", receive.TransactionID)
}

func TestBookTransferWrongLegCount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []APITransaction{{TransactionID: "DELIVER-1"}})
	})
	_, _, err := c.BookTransfer(context.Background(), clientTransfer())
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestDepotTransferUnsupported(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	err := c.DepotTransfer(context.Background(), 1, "AAPL", "DEPOT-A", "DEPOT-B", decimal.RequireFromString("5"))
	assert.ErrorIs(t, err, domain.ErrUnsupported)
}

func TestAllocateTransactionCountMismatch(t *testing.T) {
	qty := decimal.RequireFromString("60")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/allocations/1/TX-1", r.URL.Path)
		assert.Equal(t, "External", r.URL.Query().Get("allocation_type"))
		// Two specs in, one child out.
		writeJSON(t, w, []APITransaction{{TransactionID: "CHILD-1"}})
	})

	_, err := c.AllocateTransaction(context.Background(), 1, "TX-1", "External", []domain.AllocationSpec{
		{Quantity: &qty, AssetBookID: "CLIENT-1"},
		{AssetBookID: "CLIENT-2"},
	})
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestAllocateTransactionValidation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.AllocateTransaction(context.Background(), 1, "TX-1", "External", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = c.AllocateTransaction(context.Background(), 1, "TX-1", "", []domain.AllocationSpec{{}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClear(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/clear/1", r.URL.Path)
		assert.Equal(t, "BOOK-A,BOOK-B", r.URL.Query().Get("book_ids"))
		writeJSON(t, w, map[string]int64{
			"transaction_count": 12,
			"position_count":    3,
		})
	})

	result, err := c.Clear(context.Background(), 1, "BOOK-A", "BOOK-B")
	require.NoError(t, err)
	assert.Equal(t, int64(12), result.TransactionCount)
	assert.Equal(t, int64(3), result.PositionCount)
}

func TestRetrieveMTMResultsQuery(t *testing.T) {
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mtm/1", r.URL.Path)
		assert.Equal(t, "BOOK-A", r.URL.Query().Get("book_id"))
		assert.Equal(t, "2026-08-28", r.URL.Query().Get("business_date"))
		writeJSON(t, w, []APIMTMResult{})
	})

	results, err := c.RetrieveMTMResults(context.Background(), 1, "BOOK-A", date)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveTransactionPNLsQuery(t *testing.T) {
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction_pnls/1", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "BOOK-A,BOOK-B", q.Get("book_ids"))
		assert.Equal(t, "2026-08-28", q.Get("business_date"))
		assert.Equal(t, "DTD,YTD", q.Get("periods"))
		writeJSON(t, w, []APITransactionPNL{})
	})

	_, err := c.RetrieveTransactionPNLs(context.Background(), 1, []string{"BOOK-A", "BOOK-B"}, date, "DTD", "YTD")
	require.NoError(t, err)
}

func TestWriteMTMResultsEmptyBatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.NewMTMResults(context.Background(), 1, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
