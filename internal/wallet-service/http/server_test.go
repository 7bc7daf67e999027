package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veilstar/wager-platform/internal/wallet-service/dto"
	"github.com/veilstar/wager-platform/internal/wallet-service/repo"
)

const testAdminToken = "test-admin-token"

func newTestServer(t *testing.T) (*httptest.Server, *repo.Memory) {
	t.Helper()
	mem := repo.NewMemory()
	ts := httptest.NewServer(NewServer(zap.NewNop(), mem, testAdminToken).Router())
	t.Cleanup(ts.Close)
	return ts, mem
}

func postJSON(t *testing.T, url string, v any, admin bool) *http.Response {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Admin-Token", testAdminToken)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return res
}

func TestMintRequiresAdminToken(t *testing.T) {
	ts, _ := newTestServer(t)

	res := postJSON(t, ts.URL+"/ledger/mint", dto.MintRequest{Account: "alice", Amount: 100}, false)
	defer res.Body.Close()
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestTransferRoundTrip(t *testing.T) {
	ts, mem := newTestServer(t)
	ctx := context.Background()
	_, err := mem.Mint(ctx, "alice", 1_000)
	require.NoError(t, err)
	_, err = mem.Mint(ctx, "escrow", 1)
	require.NoError(t, err)

	res := postJSON(t, ts.URL+"/ledger/transfer", dto.TransferRequest{
		From: "alice", To: "escrow", Amount: 400, ExternalRef: "ref-1",
	}, false)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var out dto.TransferResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.NotEmpty(t, out.TransferID)
	require.False(t, out.Duplicate)

	balRes, err := http.Get(ts.URL + "/ledger/balance?account=alice")
	require.NoError(t, err)
	defer balRes.Body.Close()
	var bal dto.BalanceResponse
	require.NoError(t, json.NewDecoder(balRes.Body).Decode(&bal))
	require.Equal(t, int64(600), bal.Balance)
}

func TestTransferRetryReportsDuplicate(t *testing.T) {
	ts, mem := newTestServer(t)
	ctx := context.Background()
	_, err := mem.Mint(ctx, "alice", 1_000)
	require.NoError(t, err)
	_, err = mem.Mint(ctx, "escrow", 1)
	require.NoError(t, err)

	body := dto.TransferRequest{From: "alice", To: "escrow", Amount: 400, ExternalRef: "ref-1"}

	res := postJSON(t, ts.URL+"/ledger/transfer", body, false)
	res.Body.Close()

	res = postJSON(t, ts.URL+"/ledger/transfer", body, false)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var out dto.TransferResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.True(t, out.Duplicate)
}

func TestTransferErrors(t *testing.T) {
	ts, mem := newTestServer(t)
	_, err := mem.Mint(context.Background(), "alice", 100)
	require.NoError(t, err)
	_, err = mem.Mint(context.Background(), "escrow", 1)
	require.NoError(t, err)

	// Overdraft.
	res := postJSON(t, ts.URL+"/ledger/transfer", dto.TransferRequest{
		From: "alice", To: "escrow", Amount: 200, ExternalRef: "ref-1",
	}, false)
	res.Body.Close()
	require.Equal(t, http.StatusConflict, res.StatusCode)

	// Unknown account.
	res = postJSON(t, ts.URL+"/ledger/transfer", dto.TransferRequest{
		From: "ghost", To: "escrow", Amount: 10, ExternalRef: "ref-2",
	}, false)
	res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	// Missing external ref.
	res = postJSON(t, ts.URL+"/ledger/transfer", dto.TransferRequest{
		From: "alice", To: "escrow", Amount: 10,
	}, false)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestMintCreatesAccount(t *testing.T) {
	ts, _ := newTestServer(t)

	res := postJSON(t, ts.URL+"/ledger/mint", dto.MintRequest{Account: "alice", Amount: 250}, true)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var out dto.BalanceResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Equal(t, int64(250), out.Balance)
}
