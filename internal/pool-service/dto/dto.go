package dto

type CreatePoolRequest struct {
	MatchRef string `json:"match_ref"` // hex-encoded 32 bytes
	Deadline int64  `json:"deadline_ts,omitempty"`
}

type CreatePoolResponse struct {
	PoolID int64 `json:"pool_id"`
}

type CommitBetRequest struct {
	Bettor     string `json:"bettor"`
	Commitment string `json:"commitment"` // hex-encoded 32 bytes
	Amount     int64  `json:"amount"`
}

type CommitBetResponse struct {
	PoolID int64 `json:"pool_id"`
	Fee    int64 `json:"fee"`
}

type RevealBetRequest struct {
	Bettor string `json:"bettor"`
	Side   uint8  `json:"side"`
	Salt   string `json:"salt"` // hex-encoded 32 bytes
}

type SettleRequest struct {
	Winner uint8 `json:"winner"`
}

type SettleZKRequest struct {
	Winner uint8  `json:"winner"`
	VkID   string `json:"vk_id"` // hex-encoded 32 bytes
	Proof  string `json:"proof"` // hex-encoded 256 bytes
}

type ClaimRequest struct {
	Bettor string `json:"bettor"`
}

type ClaimResponse struct {
	PoolID int64 `json:"pool_id"`
	Bettor string `json:"bettor"`
	Payout int64  `json:"payout"`
}

type ConfigureVerifierRequest struct {
	VkID string `json:"vk_id"` // hex-encoded 32 bytes
}

type SweepResponse struct {
	Amount int64 `json:"amount"`
}

type PoolResponse struct {
	PoolID       int64  `json:"pool_id"`
	MatchRef     string `json:"match_ref"`
	Status       string `json:"status"`
	Player1Total int64  `json:"player1_total"`
	Player2Total int64  `json:"player2_total"`
	TotalPool    int64  `json:"total_pool"`
	TotalFees    int64  `json:"total_fees"`
	BetCount     int    `json:"bet_count"`
	RevealCount  int    `json:"reveal_count"`
	Deadline     int64  `json:"deadline_ts,omitempty"`
	Winner       string `json:"winner,omitempty"`
}

type BetResponse struct {
	PoolID     int64  `json:"pool_id"`
	Bettor     string `json:"bettor"`
	Commitment string `json:"commitment"`
	Amount     int64  `json:"amount"`
	FeePaid    int64  `json:"fee_paid"`
	Revealed   bool   `json:"revealed"`
	Side       string `json:"side,omitempty"`
	Claimed    bool   `json:"claimed"`
}
