package store

import "context"

// Store persists matches, per-slot gate records and the gate singleton.
// InsertMatch assigns the session id from the gate counter atomically.
// InsertOutcome must reject a second outcome for the same session with
// ErrOutcomeAlreadyBound.
type Store interface {
	InsertMatch(ctx context.Context, m *Match) (int64, error)
	GetMatch(ctx context.Context, sessionID int64) (*Match, error)
	PutMatch(ctx context.Context, m *Match) error

	GetCommit(ctx context.Context, key SlotKey) (*RoundCommit, error)
	PutCommit(ctx context.Context, c *RoundCommit) error

	GetVerification(ctx context.Context, key SlotKey) (*RoundVerification, error)
	PutVerification(ctx context.Context, v *RoundVerification) error
	VerifiedBySide(ctx context.Context, sessionID int64) (map[uint8]int, error)

	GetOutcome(ctx context.Context, sessionID int64) (*MatchOutcome, error)
	InsertOutcome(ctx context.Context, o *MatchOutcome) error

	GetGate(ctx context.Context) (*GateState, error)
	PutGate(ctx context.Context, g *GateState) error
}
