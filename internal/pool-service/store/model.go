package store

import (
	"errors"
	"fmt"

	"github.com/veilstar/wager-platform/pkg/commitment"
)

var (
	ErrPoolNotFound = errors.New("pool not found")
	ErrBetNotFound  = errors.New("bet not found")
	ErrDuplicateBet = errors.New("bet already committed")
)

// Status is the pool lifecycle state. Transitions only move forward:
// Open -> Locked -> Settled | Refunded, with the last two terminal.
type Status uint8

const (
	StatusOpen Status = iota
	StatusLocked
	StatusSettled
	StatusRefunded
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusLocked:
		return "LOCKED"
	case StatusSettled:
		return "SETTLED"
	case StatusRefunded:
		return "REFUNDED"
	default:
		return fmt.Sprintf("STATUS(%d)", uint8(s))
	}
}

func ParseStatus(v string) (Status, error) {
	switch v {
	case "OPEN":
		return StatusOpen, nil
	case "LOCKED":
		return StatusLocked, nil
	case "SETTLED":
		return StatusSettled, nil
	case "REFUNDED":
		return StatusRefunded, nil
	default:
		return 0, fmt.Errorf("unknown pool status %q", v)
	}
}

// Terminal reports whether no further lifecycle transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusSettled || s == StatusRefunded
}

// Pool is one betting pool over a match.
type Pool struct {
	ID           int64
	MatchRef     [32]byte
	Status       Status
	Player1Total int64 // revealed stake backing player 1
	Player2Total int64 // revealed stake backing player 2
	TotalPool    int64 // sum of all committed stakes, revealed or not
	TotalFees    int64
	BetCount     int
	RevealCount  int
	Deadline     int64 // unix seconds; 0 = no deadline
	Winner       *commitment.Side
}

// BetCommit is one bettor's hidden wager in a pool. At most one per
// (pool, bettor); the store enforces uniqueness atomically with the insert.
type BetCommit struct {
	PoolID     int64
	Bettor     string
	Commitment [32]byte
	Amount     int64 // stake, fee excluded
	FeePaid    int64
	Revealed   bool
	Side       *commitment.Side // nil until revealed
	Claimed    bool
}

// PlatformState is the singleton bookkeeping row: pool id counter, protocol
// fee accrual, sweep timestamp and the configured settlement key id.
type PlatformState struct {
	PoolCounter  int64
	FeeAccrued   int64
	LastSweep    int64  // unix seconds; 0 = never swept
	VerifierVkID []byte // nil until an admin configures zk settlement
}
