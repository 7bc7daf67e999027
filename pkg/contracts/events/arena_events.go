package events

// Event types carried on the arena_events topic.
const (
	TypeMatchStarted   = "match_started"
	TypeMoveSubmitted  = "move_submitted"
	TypeRoundCommitted = "round_committed"
	TypeRoundVerified  = "round_verified"
	TypeOutcomeBound   = "outcome_bound"
	TypeMatchEnded     = "match_ended"
)

type MatchStarted struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
	Player1   string `json:"player1"`
	Player2   string `json:"player2"`
	ZkGated   bool   `json:"zk_gated"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}

type MoveSubmitted struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
	Player    string `json:"player"`
	Move      string `json:"move"`
	Turn      int    `json:"turn"`
	Fee       int64  `json:"fee"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}

type RoundCommitted struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
	Round     int    `json:"round"`
	Turn      int    `json:"turn"`
	Side      string `json:"side"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}

type RoundVerified struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
	Round     int    `json:"round"`
	Turn      int    `json:"turn"`
	Side      string `json:"side"`
	Verifier  string `json:"verifier"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}

type OutcomeBound struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
	Winner    string `json:"winner"`
	Verifier  string `json:"verifier"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}

type MatchEnded struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
	Winner    string `json:"winner"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}
