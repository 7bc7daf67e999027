package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	walletdto "github.com/veilstar/wager-platform/internal/wallet-service/dto"
)

func TestTransferPostsExpectedPayload(t *testing.T) {
	var got walletdto.TransferRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ledger/transfer", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(walletdto.TransferResponse{TransferID: "t1"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	err := c.Transfer(context.Background(), "alice", "pool-escrow", 10_100, "pool:1:commit:alice")
	require.NoError(t, err)
	require.Equal(t, "alice", got.From)
	require.Equal(t, "pool-escrow", got.To)
	require.Equal(t, int64(10_100), got.Amount)
	require.Equal(t, "pool:1:commit:alice", got.ExternalRef)
}

func TestTransferSurfacesHTTPErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient funds", http.StatusConflict)
	}))
	defer ts.Close()

	err := New(ts.URL).Transfer(context.Background(), "alice", "pool-escrow", 1, "ref")
	require.Error(t, err)
	require.Contains(t, err.Error(), "409")
}

func TestBalance(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "pool-escrow", r.URL.Query().Get("account"))
		json.NewEncoder(w).Encode(walletdto.BalanceResponse{Account: "pool-escrow", Balance: 42})
	}))
	defer ts.Close()

	balance, err := New(ts.URL).Balance(context.Background(), "pool-escrow")
	require.NoError(t, err)
	require.Equal(t, int64(42), balance)
}
