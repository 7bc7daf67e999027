package http

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veilstar/wager-platform/internal/verifier-service/dto"
	"github.com/veilstar/wager-platform/internal/verifier-service/service"
	"github.com/veilstar/wager-platform/internal/verifier-service/store"
)

const testAdminToken = "test-admin-token"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, err := service.New(zap.NewNop(), store.NewMemory(), 16)
	require.NoError(t, err)
	ts := httptest.NewServer(NewServer(zap.NewNop(), svc, testAdminToken).Router())
	t.Cleanup(ts.Close)
	return ts
}

func consistentKeyRequest(t *testing.T) (dto.SetKeyRequest, string, []string) {
	t.Helper()
	_, _, g1, g2 := bn254.Generators()

	var alpha bn254.G1Affine
	alpha.ScalarMultiplication(&g1, big.NewInt(5))
	var beta bn254.G2Affine
	beta.ScalarMultiplication(&g2, big.NewInt(7))
	var c bn254.G1Affine
	c.ScalarMultiplication(&g1, big.NewInt(3))
	c.Neg(&c)

	vkID := bytes.Repeat([]byte{0x11}, 32)
	req := dto.SetKeyRequest{
		VkID:    hex.EncodeToString(vkID),
		AlphaG1: hex.EncodeToString(alpha.Marshal()),
		BetaG2:  hex.EncodeToString(beta.Marshal()),
		GammaG2: hex.EncodeToString(g2.Marshal()),
		DeltaG2: hex.EncodeToString(g2.Marshal()),
		IC:      []string{hex.EncodeToString(g1.Marshal()), hex.EncodeToString(g1.Marshal())},
	}

	proof := append(append(alpha.Marshal(), beta.Marshal()...), c.Marshal()...)
	var input [32]byte
	input[31] = 2
	return req, hex.EncodeToString(proof), []string{hex.EncodeToString(input[:])}
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

func TestSetKeyRequiresAdminToken(t *testing.T) {
	ts := newTestServer(t)
	keyReq, _, _ := consistentKeyRequest(t)

	res := postJSON(t, ts.URL+"/keys", keyReq, false)
	defer res.Body.Close()
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestSetKeyAndVerifyRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	keyReq, proofHex, inputs := consistentKeyRequest(t)

	res := postJSON(t, ts.URL+"/keys", keyReq, true)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var keyOut dto.SetKeyResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&keyOut))
	require.Equal(t, 1, keyOut.PublicInputs)

	res = postJSON(t, ts.URL+"/verify", dto.VerifyRequest{
		VkID: keyReq.VkID, Proof: proofHex, PublicInputs: inputs,
	}, false)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var out dto.VerifyResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.True(t, out.Valid)

	statusRes, err := http.Get(ts.URL + "/keys/" + keyReq.VkID)
	require.NoError(t, err)
	defer statusRes.Body.Close()
	var status dto.KeyStatusResponse
	require.NoError(t, json.NewDecoder(statusRes.Body).Decode(&status))
	require.True(t, status.Installed)
}

func TestVerifyMalformedInputAnswersFalseNotError(t *testing.T) {
	ts := newTestServer(t)

	cases := []dto.VerifyRequest{
		{VkID: "zz", Proof: "00", PublicInputs: nil},
		{VkID: "1111", Proof: "00", PublicInputs: nil}, // vk_id too short
		{VkID: "1111111111111111111111111111111111111111111111111111111111111111",
			Proof: "not-hex", PublicInputs: nil},
		{VkID: "1111111111111111111111111111111111111111111111111111111111111111",
			Proof: "00", PublicInputs: []string{"bad"}},
	}
	for _, c := range cases {
		res := postJSON(t, ts.URL+"/verify", c, false)
		require.Equal(t, http.StatusOK, res.StatusCode)
		var out dto.VerifyResponse
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		res.Body.Close()
		require.False(t, out.Valid)
	}
}

func TestVerifyUnknownKeyAnswersFalse(t *testing.T) {
	ts := newTestServer(t)
	_, proofHex, inputs := consistentKeyRequest(t)

	res := postJSON(t, ts.URL+"/verify", dto.VerifyRequest{
		VkID:         "2222222222222222222222222222222222222222222222222222222222222222",
		Proof:        proofHex,
		PublicInputs: inputs,
	}, false)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var out dto.VerifyResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.False(t, out.Valid)
}
