package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	walletdto "github.com/veilstar/wager-platform/internal/wallet-service/dto"
)

// Client talks to the wallet service's ledger endpoints.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *Client) Transfer(ctx context.Context, from, to string, amount int64, ref string) error {
	body, _ := json.Marshal(walletdto.TransferRequest{
		From: from, To: to, Amount: amount, ExternalRef: ref,
	})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/ledger/transfer", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("ledger transfer http %d", res.StatusCode)
	}
	return nil
}

func (c *Client) Balance(ctx context.Context, account string) (int64, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/ledger/balance?account="+url.QueryEscape(account), nil)
	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return 0, fmt.Errorf("ledger balance http %d", res.StatusCode)
	}
	var out walletdto.BalanceResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}
