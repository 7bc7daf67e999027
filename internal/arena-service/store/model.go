package store

import (
	"errors"
	"fmt"

	"github.com/veilstar/wager-platform/pkg/commitment"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrCommitNotFound       = errors.New("round commit not found")
	ErrVerificationNotFound = errors.New("round verification not found")
	ErrOutcomeNotFound      = errors.New("match outcome not found")
	ErrOutcomeAlreadyBound  = errors.New("match outcome already bound")
)

type MatchStatus uint8

const (
	MatchActive MatchStatus = iota
	MatchEnded
)

func (s MatchStatus) String() string {
	switch s {
	case MatchActive:
		return "ACTIVE"
	case MatchEnded:
		return "ENDED"
	default:
		return fmt.Sprintf("STATUS(%d)", uint8(s))
	}
}

func ParseMatchStatus(v string) (MatchStatus, error) {
	switch v {
	case "ACTIVE":
		return MatchActive, nil
	case "ENDED":
		return MatchEnded, nil
	default:
		return 0, fmt.Errorf("unknown match status %q", v)
	}
}

// Match is one gated session between two players. Ref is the external match
// reference bound into round proofs; SessionID is this service's own key.
type Match struct {
	SessionID int64
	Ref       [32]byte
	Player1   string
	Player2   string
	Stake     int64
	ZkGated   bool
	Status    MatchStatus
	MoveCount int
	Winner    *commitment.Side
}

// SlotKey addresses one commit/verify slot. Each player side gets its own
// slot per (round, turn).
type SlotKey struct {
	SessionID int64
	Round     int
	Turn      int
	Side      commitment.Side
}

// RoundCommit is the hidden move commitment for a slot. Write-once per slot;
// resubmitting the identical commitment is a no-op.
type RoundCommit struct {
	Key        SlotKey
	Commitment [32]byte
}

// RoundVerification records that a verifier opened a slot's commitment and
// backed it with an accepted proof. Opened is the preimage digest the
// verifier matched against the stored commitment.
type RoundVerification struct {
	Key      SlotKey
	Opened   [32]byte
	Verifier string
	VkID     [32]byte
}

// MatchOutcome binds the claimed winner behind a verified proof. At most one
// per match; a second bind attempt is an error, never an overwrite.
type MatchOutcome struct {
	SessionID int64
	Winner    commitment.Side
	Verifier  string
	VkID      [32]byte
}

// GateState is the singleton row: session id counter and the optional pinned
// verification key all submissions must use.
type GateState struct {
	SessionCounter int64
	VkID           []byte // nil = any installed key accepted
}
