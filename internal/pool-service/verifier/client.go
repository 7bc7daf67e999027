package verifier

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	verifierdto "github.com/veilstar/wager-platform/internal/verifier-service/dto"
)

// Client talks to the verifier service. The verify endpoint never fails a
// proof with an HTTP error; rejection comes back as valid=false.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) VerifyProof(ctx context.Context, vkID [32]byte, proof []byte, publicInputs [][32]byte) (bool, error) {
	inputs := make([]string, len(publicInputs))
	for i, in := range publicInputs {
		inputs[i] = hex.EncodeToString(in[:])
	}
	body, _ := json.Marshal(verifierdto.VerifyRequest{
		VkID:         hex.EncodeToString(vkID[:]),
		Proof:        hex.EncodeToString(proof),
		PublicInputs: inputs,
	})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/verify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return false, fmt.Errorf("verifier http %d", res.StatusCode)
	}
	var out verifierdto.VerifyResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Valid, nil
}
