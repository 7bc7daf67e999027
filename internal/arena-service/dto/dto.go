package dto

type StartMatchRequest struct {
	MatchRef string `json:"match_ref"` // hex-encoded 32 bytes
	Player1  string `json:"player1"`
	Player2  string `json:"player2"`
	Stake    int64  `json:"stake"`
	ZkGated  bool   `json:"zk_gated"`
}

type StartMatchResponse struct {
	SessionID int64 `json:"session_id"`
}

type SubmitMoveRequest struct {
	Player string `json:"player"`
	Move   string `json:"move"`
}

type SubmitMoveResponse struct {
	SessionID int64 `json:"session_id"`
	Turn      int   `json:"turn"`
	Fee       int64 `json:"fee"`
}

type RoundCommitRequest struct {
	Round      int    `json:"round"`
	Turn       int    `json:"turn"`
	Side       uint8  `json:"side"`
	Commitment string `json:"commitment"` // hex-encoded 32 bytes
}

type RoundCommitResponse struct {
	Created bool `json:"created"`
}

type RoundVerifyRequest struct {
	Round    int    `json:"round"`
	Turn     int    `json:"turn"`
	Side     uint8  `json:"side"`
	Verifier string `json:"verifier"`
	Opened   string `json:"opened"` // hex-encoded 32 bytes
	VkID     string `json:"vk_id"`  // hex-encoded 32 bytes
	Proof    string `json:"proof"`  // hex-encoded 256 bytes
}

type RoundVerifyResponse struct {
	Created bool `json:"created"`
}

type BindOutcomeRequest struct {
	Winner   uint8  `json:"winner"`
	Verifier string `json:"verifier"`
	VkID     string `json:"vk_id"`
	Proof    string `json:"proof"`
}

type FinalizeRequest struct {
	Winner uint8 `json:"winner"`
}

type ConfigureVerifierRequest struct {
	VkID string `json:"vk_id"`
}

type SweepResponse struct {
	Amount int64 `json:"amount"`
}

type MatchResponse struct {
	SessionID int64  `json:"session_id"`
	MatchRef  string `json:"match_ref"`
	Player1   string `json:"player1"`
	Player2   string `json:"player2"`
	Stake     int64  `json:"stake"`
	ZkGated   bool   `json:"zk_gated"`
	Status    string `json:"status"`
	MoveCount int    `json:"move_count"`
	Winner    string `json:"winner,omitempty"`
}
