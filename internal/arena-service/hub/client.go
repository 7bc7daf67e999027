package hub

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type startRequest struct {
	MatchRef string `json:"match_ref"`
	Player1  string `json:"player1"`
	Player2  string `json:"player2"`
	Stake    int64  `json:"stake"`
}

type endRequest struct {
	MatchRef string `json:"match_ref"`
	Winner   string `json:"winner"`
}

// Client notifies the game hub that holds the players' stakes. The hub locks
// both stakes on start and releases them to the winner on end, so arena state
// must never advance past a hub call that failed.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 3 * time.Second},
	}
}

func (c *Client) StartGame(ctx context.Context, matchRef [32]byte, player1, player2 string, stake int64) error {
	body, _ := json.Marshal(startRequest{
		MatchRef: hex.EncodeToString(matchRef[:]),
		Player1:  player1,
		Player2:  player2,
		Stake:    stake,
	})
	return c.post(ctx, "/games/start", body)
}

func (c *Client) EndGame(ctx context.Context, matchRef [32]byte, winner string) error {
	body, _ := json.Marshal(endRequest{
		MatchRef: hex.EncodeToString(matchRef[:]),
		Winner:   winner,
	})
	return c.post(ctx, "/games/end", body)
}

func (c *Client) post(ctx context.Context, path string, body []byte) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("hub %s http %d", path, res.StatusCode)
	}
	return nil
}
