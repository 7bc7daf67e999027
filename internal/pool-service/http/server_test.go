package http

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veilstar/wager-platform/internal/pool-service/dto"
	"github.com/veilstar/wager-platform/internal/pool-service/engine"
	"github.com/veilstar/wager-platform/internal/pool-service/store"
	"github.com/veilstar/wager-platform/pkg/commitment"
	"github.com/veilstar/wager-platform/pkg/fees"
)

const testAdminToken = "test-admin-token"

type okLedger struct{}

func (okLedger) Transfer(context.Context, string, string, int64, string) error { return nil }
func (okLedger) Balance(context.Context, string) (int64, error)               { return 0, nil }

type yesVerifier struct{}

func (yesVerifier) VerifyProof(context.Context, [32]byte, []byte, [][32]byte) (bool, error) {
	return true, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	eng := engine.New(zap.NewNop(), store.NewMemory(), okLedger{}, yesVerifier{}, engine.Config{
		MinStake:        1_000,
		Schedule:        fees.Betting,
		EscrowAccount:   "pool-escrow",
		TreasuryAccount: "treasury",
		SweepInterval:   24 * time.Hour,
	})
	ts := httptest.NewServer(NewServer(zap.NewNop(), eng, nil, nil, testAdminToken, "treasury").Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, v any, admin bool) *http.Response {
	t.Helper()
	var body bytes.Buffer
	if v != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(v))
	}
	req, err := http.NewRequest(method, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Admin-Token", testAdminToken)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return res
}

func createPool(t *testing.T, ts *httptest.Server) int64 {
	t.Helper()
	res := doJSON(t, http.MethodPost, ts.URL+"/pools", dto.CreatePoolRequest{
		MatchRef: hex.EncodeToString(bytes.Repeat([]byte{0xAB}, 32)),
	}, true)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var out dto.CreatePoolResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out.PoolID
}

func TestCreatePoolRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)
	res := doJSON(t, http.MethodPost, ts.URL+"/pools", dto.CreatePoolRequest{
		MatchRef: hex.EncodeToString(bytes.Repeat([]byte{0xAB}, 32)),
	}, false)
	defer res.Body.Close()
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestCommitRevealClaimOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	poolID := createPool(t, ts)
	base := ts.URL + "/pools/" + strconv.FormatInt(poolID, 10)

	salt, err := commitment.NewSalt()
	require.NoError(t, err)
	comm := commitment.Commit(commitment.SidePlayer1, salt)

	res := doJSON(t, http.MethodPost, base+"/commit", dto.CommitBetRequest{
		Bettor: "alice", Commitment: hex.EncodeToString(comm[:]), Amount: 10_000,
	}, false)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var commitOut dto.CommitBetResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&commitOut))
	require.Equal(t, int64(100), commitOut.Fee)

	res = doJSON(t, http.MethodPost, base+"/lock", nil, true)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = doJSON(t, http.MethodPost, base+"/reveal", dto.RevealBetRequest{
		Bettor: "alice", Side: 0, Salt: hex.EncodeToString(salt[:]),
	}, false)
	res.Body.Close()
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res = doJSON(t, http.MethodPost, base+"/settle", dto.SettleRequest{Winner: 0}, true)
	res.Body.Close()
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res = doJSON(t, http.MethodPost, base+"/claim", dto.ClaimRequest{Bettor: "alice"}, false)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var claimOut dto.ClaimResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&claimOut))
	require.Equal(t, int64(20_000), claimOut.Payout)

	getRes, err := http.Get(base)
	require.NoError(t, err)
	defer getRes.Body.Close()
	var pool dto.PoolResponse
	require.NoError(t, json.NewDecoder(getRes.Body).Decode(&pool))
	require.Equal(t, "SETTLED", pool.Status)
	require.Equal(t, "player1", pool.Winner)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	poolID := createPool(t, ts)
	base := ts.URL + "/pools/" + strconv.FormatInt(poolID, 10)

	// Unknown pool: 404.
	res := doJSON(t, http.MethodPost, ts.URL+"/pools/42/lock", nil, true)
	res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	// Below minimum stake: 400.
	salt, err := commitment.NewSalt()
	require.NoError(t, err)
	comm := commitment.Commit(commitment.SidePlayer1, salt)
	res = doJSON(t, http.MethodPost, base+"/commit", dto.CommitBetRequest{
		Bettor: "alice", Commitment: hex.EncodeToString(comm[:]), Amount: 1,
	}, false)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	// State violation: 409. Revealing needs a locked pool.
	res = doJSON(t, http.MethodPost, base+"/reveal", dto.RevealBetRequest{
		Bettor: "alice", Side: 0, Salt: hex.EncodeToString(salt[:]),
	}, false)
	res.Body.Close()
	require.Equal(t, http.StatusConflict, res.StatusCode)

	// Wrong reveal: 422.
	res = doJSON(t, http.MethodPost, base+"/commit", dto.CommitBetRequest{
		Bettor: "alice", Commitment: hex.EncodeToString(comm[:]), Amount: 10_000,
	}, false)
	res.Body.Close()
	res = doJSON(t, http.MethodPost, base+"/lock", nil, true)
	res.Body.Close()
	res = doJSON(t, http.MethodPost, base+"/reveal", dto.RevealBetRequest{
		Bettor: "alice", Side: 1, Salt: hex.EncodeToString(salt[:]),
	}, false)
	res.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	// Bad side byte: 400 at the edge, before the engine runs.
	res = doJSON(t, http.MethodPost, base+"/reveal", dto.RevealBetRequest{
		Bettor: "alice", Side: 9, Salt: hex.EncodeToString(salt[:]),
	}, false)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSettleZKOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	poolID := createPool(t, ts)
	base := ts.URL + "/pools/" + strconv.FormatInt(poolID, 10)

	res := doJSON(t, http.MethodPost, base+"/lock", nil, true)
	res.Body.Close()

	vkHex := hex.EncodeToString(bytes.Repeat([]byte{0x01}, 32))
	proofHex := hex.EncodeToString(make([]byte, 256))

	// Not configured yet: 409.
	res = doJSON(t, http.MethodPost, base+"/settle-zk", dto.SettleZKRequest{
		Winner: 1, VkID: vkHex, Proof: proofHex,
	}, true)
	res.Body.Close()
	require.Equal(t, http.StatusConflict, res.StatusCode)

	res = doJSON(t, http.MethodPost, ts.URL+"/admin/verifier", dto.ConfigureVerifierRequest{VkID: vkHex}, true)
	res.Body.Close()
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res = doJSON(t, http.MethodPost, base+"/settle-zk", dto.SettleZKRequest{
		Winner: 1, VkID: vkHex, Proof: proofHex,
	}, true)
	res.Body.Close()
	require.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestAdminRevealOnBehalfOfBettor(t *testing.T) {
	ts := newTestServer(t)
	poolID := createPool(t, ts)
	base := ts.URL + "/pools/" + strconv.FormatInt(poolID, 10)

	salt, err := commitment.NewSalt()
	require.NoError(t, err)
	comm := commitment.Commit(commitment.SidePlayer2, salt)
	res := doJSON(t, http.MethodPost, base+"/commit", dto.CommitBetRequest{
		Bettor: "bob", Commitment: hex.EncodeToString(comm[:]), Amount: 10_000,
	}, false)
	res.Body.Close()
	res = doJSON(t, http.MethodPost, base+"/lock", nil, true)
	res.Body.Close()

	body := dto.RevealBetRequest{Bettor: "bob", Side: 1, Salt: hex.EncodeToString(salt[:])}
	res = doJSON(t, http.MethodPost, base+"/admin-reveal", body, false)
	res.Body.Close()
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = doJSON(t, http.MethodPost, base+"/admin-reveal", body, true)
	res.Body.Close()
	require.Equal(t, http.StatusNoContent, res.StatusCode)
}
