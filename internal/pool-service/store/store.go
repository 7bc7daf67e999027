package store

import "context"

// Store persists pools, bets and the platform singleton. Implementations
// must make CreatePool assign ids from the platform counter atomically and
// make InsertBet reject a second bet for the same (pool, bettor) with
// ErrDuplicateBet.
type Store interface {
	CreatePool(ctx context.Context, p *Pool) (int64, error)
	GetPool(ctx context.Context, id int64) (*Pool, error)
	PutPool(ctx context.Context, p *Pool) error

	InsertBet(ctx context.Context, b *BetCommit) error
	GetBet(ctx context.Context, poolID int64, bettor string) (*BetCommit, error)
	PutBet(ctx context.Context, b *BetCommit) error
	ListBets(ctx context.Context, poolID int64) ([]*BetCommit, error)

	GetPlatform(ctx context.Context) (*PlatformState, error)
	// PutPlatform writes fee accrual, sweep time and verifier key id. The
	// pool counter is owned by CreatePool and ignored here.
	PutPlatform(ctx context.Context, s *PlatformState) error
}
