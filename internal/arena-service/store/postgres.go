package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/veilstar/wager-platform/pkg/commitment"
)

// Postgres implements Store on database/sql + lib/pq.
//
// Expected schema:
//
//	CREATE TABLE matches (
//	    session_id BIGINT PRIMARY KEY,
//	    match_ref  BYTEA NOT NULL,
//	    player1    TEXT NOT NULL,
//	    player2    TEXT NOT NULL,
//	    stake      BIGINT NOT NULL,
//	    zk_gated   BOOLEAN NOT NULL,
//	    status     TEXT NOT NULL,
//	    move_count INT NOT NULL DEFAULT 0,
//	    winner     SMALLINT
//	);
//
//	CREATE TABLE round_commits (
//	    session_id BIGINT NOT NULL REFERENCES matches (session_id),
//	    round      INT NOT NULL,
//	    turn       INT NOT NULL,
//	    side       SMALLINT NOT NULL,
//	    commitment BYTEA NOT NULL,
//	    PRIMARY KEY (session_id, round, turn, side)
//	);
//
//	CREATE TABLE round_verifications (
//	    session_id BIGINT NOT NULL,
//	    round      INT NOT NULL,
//	    turn       INT NOT NULL,
//	    side       SMALLINT NOT NULL,
//	    opened     BYTEA NOT NULL,
//	    verifier   TEXT NOT NULL,
//	    vk_id      BYTEA NOT NULL,
//	    PRIMARY KEY (session_id, round, turn, side)
//	);
//
//	CREATE TABLE match_outcomes (
//	    session_id BIGINT PRIMARY KEY,
//	    winner     SMALLINT NOT NULL,
//	    verifier   TEXT NOT NULL,
//	    vk_id      BYTEA NOT NULL
//	);
//
//	CREATE TABLE gate_state (
//	    id              BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
//	    session_counter BIGINT NOT NULL DEFAULT 0,
//	    vk_id           BYTEA
//	);
//	INSERT INTO gate_state DEFAULT VALUES;
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) InsertMatch(ctx context.Context, m *Match) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		UPDATE gate_state SET session_counter = session_counter + 1
		RETURNING session_counter
	`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("next session id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO matches (session_id, match_ref, player1, player2, stake, zk_gated, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, m.Ref[:], m.Player1, m.Player2, m.Stake, m.ZkGated, m.Status.String())
	if err != nil {
		return 0, fmt.Errorf("insert match: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func (p *Postgres) GetMatch(ctx context.Context, sessionID int64) (*Match, error) {
	var (
		m      Match
		ref    []byte
		status string
		winner sql.NullInt16
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT session_id, match_ref, player1, player2, stake, zk_gated, status, move_count, winner
		FROM matches WHERE session_id = $1
	`, sessionID).Scan(&m.SessionID, &ref, &m.Player1, &m.Player2, &m.Stake,
		&m.ZkGated, &status, &m.MoveCount, &winner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	copy(m.Ref[:], ref)
	if m.Status, err = ParseMatchStatus(status); err != nil {
		return nil, err
	}
	if winner.Valid {
		side, err := commitment.ParseSide(uint8(winner.Int16))
		if err != nil {
			return nil, err
		}
		m.Winner = &side
	}
	return &m, nil
}

func (p *Postgres) PutMatch(ctx context.Context, m *Match) error {
	var winner sql.NullInt16
	if m.Winner != nil {
		winner = sql.NullInt16{Int16: int16(*m.Winner), Valid: true}
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE matches SET status = $2, move_count = $3, winner = $4
		WHERE session_id = $1
	`, m.SessionID, m.Status.String(), m.MoveCount, winner)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (p *Postgres) GetCommit(ctx context.Context, key SlotKey) (*RoundCommit, error) {
	var comm []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT commitment FROM round_commits
		WHERE session_id = $1 AND round = $2 AND turn = $3 AND side = $4
	`, key.SessionID, key.Round, key.Turn, int16(key.Side)).Scan(&comm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get round commit: %w", err)
	}
	c := &RoundCommit{Key: key}
	copy(c.Commitment[:], comm)
	return c, nil
}

func (p *Postgres) PutCommit(ctx context.Context, c *RoundCommit) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO round_commits (session_id, round, turn, side, commitment)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, round, turn, side) DO UPDATE SET commitment = EXCLUDED.commitment
	`, c.Key.SessionID, c.Key.Round, c.Key.Turn, int16(c.Key.Side), c.Commitment[:])
	if err != nil {
		return fmt.Errorf("put round commit: %w", err)
	}
	return nil
}

func (p *Postgres) GetVerification(ctx context.Context, key SlotKey) (*RoundVerification, error) {
	var (
		v      = RoundVerification{Key: key}
		opened []byte
		vkID   []byte
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT opened, verifier, vk_id FROM round_verifications
		WHERE session_id = $1 AND round = $2 AND turn = $3 AND side = $4
	`, key.SessionID, key.Round, key.Turn, int16(key.Side)).Scan(&opened, &v.Verifier, &vkID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVerificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get round verification: %w", err)
	}
	copy(v.Opened[:], opened)
	copy(v.VkID[:], vkID)
	return &v, nil
}

func (p *Postgres) PutVerification(ctx context.Context, v *RoundVerification) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO round_verifications (session_id, round, turn, side, opened, verifier, vk_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, round, turn, side) DO NOTHING
	`, v.Key.SessionID, v.Key.Round, v.Key.Turn, int16(v.Key.Side), v.Opened[:], v.Verifier, v.VkID[:])
	if err != nil {
		return fmt.Errorf("put round verification: %w", err)
	}
	return nil
}

func (p *Postgres) VerifiedBySide(ctx context.Context, sessionID int64) (map[uint8]int, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT side, COUNT(*) FROM round_verifications
		WHERE session_id = $1 GROUP BY side
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("count verifications: %w", err)
	}
	defer rows.Close()

	out := make(map[uint8]int)
	for rows.Next() {
		var side int16
		var n int
		if err := rows.Scan(&side, &n); err != nil {
			return nil, err
		}
		out[uint8(side)] = n
	}
	return out, rows.Err()
}

func (p *Postgres) GetOutcome(ctx context.Context, sessionID int64) (*MatchOutcome, error) {
	var (
		o      = MatchOutcome{SessionID: sessionID}
		winner int16
		vkID   []byte
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT winner, verifier, vk_id FROM match_outcomes WHERE session_id = $1
	`, sessionID).Scan(&winner, &o.Verifier, &vkID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOutcomeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get outcome: %w", err)
	}
	side, err := commitment.ParseSide(uint8(winner))
	if err != nil {
		return nil, err
	}
	o.Winner = side
	copy(o.VkID[:], vkID)
	return &o, nil
}

func (p *Postgres) InsertOutcome(ctx context.Context, o *MatchOutcome) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO match_outcomes (session_id, winner, verifier, vk_id)
		VALUES ($1, $2, $3, $4)
	`, o.SessionID, int16(o.Winner), o.Verifier, o.VkID[:])
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrOutcomeAlreadyBound
		}
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

func (p *Postgres) GetGate(ctx context.Context) (*GateState, error) {
	var g GateState
	err := p.db.QueryRowContext(ctx, `
		SELECT session_counter, vk_id FROM gate_state
	`).Scan(&g.SessionCounter, &g.VkID)
	if err != nil {
		return nil, fmt.Errorf("get gate state: %w", err)
	}
	return &g, nil
}

func (p *Postgres) PutGate(ctx context.Context, g *GateState) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE gate_state SET session_counter = $1, vk_id = $2
	`, g.SessionCounter, g.VkID)
	if err != nil {
		return fmt.Errorf("put gate state: %w", err)
	}
	return nil
}
