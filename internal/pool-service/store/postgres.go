package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/veilstar/wager-platform/pkg/commitment"
)

// Postgres implements Store on top of database/sql + lib/pq.
//
// Expected schema:
//
//	CREATE TABLE pools (
//	    id            BIGINT PRIMARY KEY,
//	    match_ref     BYTEA NOT NULL,
//	    status        TEXT NOT NULL,
//	    player1_total BIGINT NOT NULL DEFAULT 0,
//	    player2_total BIGINT NOT NULL DEFAULT 0,
//	    total_pool    BIGINT NOT NULL DEFAULT 0,
//	    total_fees    BIGINT NOT NULL DEFAULT 0,
//	    bet_count     INT NOT NULL DEFAULT 0,
//	    reveal_count  INT NOT NULL DEFAULT 0,
//	    deadline      BIGINT NOT NULL DEFAULT 0,
//	    winner        SMALLINT
//	);
//
//	CREATE TABLE bets (
//	    pool_id    BIGINT NOT NULL REFERENCES pools (id),
//	    bettor     TEXT NOT NULL,
//	    commitment BYTEA NOT NULL,
//	    amount     BIGINT NOT NULL,
//	    fee_paid   BIGINT NOT NULL,
//	    revealed   BOOLEAN NOT NULL DEFAULT FALSE,
//	    side       SMALLINT,
//	    claimed    BOOLEAN NOT NULL DEFAULT FALSE,
//	    PRIMARY KEY (pool_id, bettor)
//	);
//
//	CREATE TABLE platform_state (
//	    id           BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
//	    pool_counter BIGINT NOT NULL DEFAULT 0,
//	    fee_accrued  BIGINT NOT NULL DEFAULT 0,
//	    last_sweep   BIGINT NOT NULL DEFAULT 0,
//	    verifier_vk  BYTEA
//	);
//	INSERT INTO platform_state DEFAULT VALUES;
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) CreatePool(ctx context.Context, pool *Pool) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		UPDATE platform_state SET pool_counter = pool_counter + 1
		RETURNING pool_counter
	`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("next pool id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pools (id, match_ref, status, deadline)
		VALUES ($1, $2, $3, $4)
	`, id, pool.MatchRef[:], pool.Status.String(), pool.Deadline)
	if err != nil {
		return 0, fmt.Errorf("insert pool: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func (p *Postgres) GetPool(ctx context.Context, id int64) (*Pool, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, match_ref, status, player1_total, player2_total,
		       total_pool, total_fees, bet_count, reveal_count, deadline, winner
		FROM pools WHERE id = $1
	`, id)
	return scanPool(row)
}

func (p *Postgres) PutPool(ctx context.Context, pool *Pool) error {
	var winner sql.NullInt16
	if pool.Winner != nil {
		winner = sql.NullInt16{Int16: int16(*pool.Winner), Valid: true}
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE pools SET
			status = $2, player1_total = $3, player2_total = $4,
			total_pool = $5, total_fees = $6, bet_count = $7,
			reveal_count = $8, deadline = $9, winner = $10
		WHERE id = $1
	`, pool.ID, pool.Status.String(), pool.Player1Total, pool.Player2Total,
		pool.TotalPool, pool.TotalFees, pool.BetCount, pool.RevealCount,
		pool.Deadline, winner)
	if err != nil {
		return fmt.Errorf("update pool: %w", err)
	}
	return requireRow(res, ErrPoolNotFound)
}

func (p *Postgres) InsertBet(ctx context.Context, b *BetCommit) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO bets (pool_id, bettor, commitment, amount, fee_paid)
		VALUES ($1, $2, $3, $4, $5)
	`, b.PoolID, b.Bettor, b.Commitment[:], b.Amount, b.FeePaid)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateBet
		}
		return fmt.Errorf("insert bet: %w", err)
	}
	return nil
}

func (p *Postgres) GetBet(ctx context.Context, poolID int64, bettor string) (*BetCommit, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT pool_id, bettor, commitment, amount, fee_paid, revealed, side, claimed
		FROM bets WHERE pool_id = $1 AND bettor = $2
	`, poolID, bettor)
	b, err := scanBet(row)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (p *Postgres) PutBet(ctx context.Context, b *BetCommit) error {
	var side sql.NullInt16
	if b.Side != nil {
		side = sql.NullInt16{Int16: int16(*b.Side), Valid: true}
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE bets SET revealed = $3, side = $4, claimed = $5
		WHERE pool_id = $1 AND bettor = $2
	`, b.PoolID, b.Bettor, b.Revealed, side, b.Claimed)
	if err != nil {
		return fmt.Errorf("update bet: %w", err)
	}
	return requireRow(res, ErrBetNotFound)
}

func (p *Postgres) ListBets(ctx context.Context, poolID int64) ([]*BetCommit, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT pool_id, bettor, commitment, amount, fee_paid, revealed, side, claimed
		FROM bets WHERE pool_id = $1 ORDER BY bettor
	`, poolID)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()

	var out []*BetCommit
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *Postgres) GetPlatform(ctx context.Context) (*PlatformState, error) {
	var s PlatformState
	err := p.db.QueryRowContext(ctx, `
		SELECT pool_counter, fee_accrued, last_sweep, verifier_vk
		FROM platform_state
	`).Scan(&s.PoolCounter, &s.FeeAccrued, &s.LastSweep, &s.VerifierVkID)
	if err != nil {
		return nil, fmt.Errorf("get platform state: %w", err)
	}
	return &s, nil
}

// PutPlatform never touches pool_counter: that column only advances inside
// CreatePool's transaction, so a read-modify-write here cannot hand out a
// stale counter to a concurrent pool creation.
func (p *Postgres) PutPlatform(ctx context.Context, s *PlatformState) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE platform_state SET
			fee_accrued = $1, last_sweep = $2, verifier_vk = $3
	`, s.FeeAccrued, s.LastSweep, s.VerifierVkID)
	if err != nil {
		return fmt.Errorf("put platform state: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPool(row rowScanner) (*Pool, error) {
	var (
		p        Pool
		matchRef []byte
		status   string
		winner   sql.NullInt16
	)
	err := row.Scan(&p.ID, &matchRef, &status, &p.Player1Total, &p.Player2Total,
		&p.TotalPool, &p.TotalFees, &p.BetCount, &p.RevealCount, &p.Deadline, &winner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPoolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan pool: %w", err)
	}
	copy(p.MatchRef[:], matchRef)
	if p.Status, err = ParseStatus(status); err != nil {
		return nil, err
	}
	if winner.Valid {
		side, err := commitment.ParseSide(uint8(winner.Int16))
		if err != nil {
			return nil, err
		}
		p.Winner = &side
	}
	return &p, nil
}

func scanBet(row rowScanner) (*BetCommit, error) {
	var (
		b    BetCommit
		comm []byte
		side sql.NullInt16
	)
	err := row.Scan(&b.PoolID, &b.Bettor, &comm, &b.Amount, &b.FeePaid,
		&b.Revealed, &side, &b.Claimed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan bet: %w", err)
	}
	copy(b.Commitment[:], comm)
	if side.Valid {
		s, err := commitment.ParseSide(uint8(side.Int16))
		if err != nil {
			return nil, err
		}
		b.Side = &s
	}
	return &b, nil
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
