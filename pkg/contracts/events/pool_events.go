package events

// Event types carried on the pool_events topic.
const (
	TypePoolCreated   = "pool_created"
	TypeBetCommitted  = "bet_committed"
	TypePoolLocked    = "pool_locked"
	TypeBetRevealed   = "bet_revealed"
	TypePoolSettled   = "pool_settled"
	TypePayoutClaimed = "payout_claimed"
	TypePoolRefunded  = "pool_refunded"
	TypeTreasurySwept = "treasury_swept"
)

type PoolCreated struct {
	Type     string `json:"type"`
	PoolID   int64  `json:"pool_id"`
	MatchRef string `json:"match_ref"` // hex-encoded 32 bytes
	Deadline int64  `json:"deadline_ts"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

type BetCommitted struct {
	Type     string `json:"type"`
	PoolID   int64  `json:"pool_id"`
	Bettor   string `json:"bettor"`
	Amount   int64  `json:"amount"`
	Fee      int64  `json:"fee"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

type PoolLocked struct {
	Type     string `json:"type"`
	PoolID   int64  `json:"pool_id"`
	BetCount int    `json:"bet_count"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

type BetRevealed struct {
	Type     string `json:"type"`
	PoolID   int64  `json:"pool_id"`
	Bettor   string `json:"bettor"`
	Side     string `json:"side"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

type PoolSettled struct {
	Type       string `json:"type"`
	PoolID     int64  `json:"pool_id"`
	Winner     string `json:"winner"`
	ZkVerified bool   `json:"zk_verified"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}

type PayoutClaimed struct {
	Type     string `json:"type"`
	PoolID   int64  `json:"pool_id"`
	Bettor   string `json:"bettor"`
	Amount   int64  `json:"amount"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

type PoolRefunded struct {
	Type     string `json:"type"`
	PoolID   int64  `json:"pool_id"`
	BetCount int    `json:"bet_count"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

type TreasurySwept struct {
	Type     string `json:"type"`
	Amount   int64  `json:"amount"`
	Treasury string `json:"treasury"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}
