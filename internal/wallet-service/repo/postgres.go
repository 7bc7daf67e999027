package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotFound   = errors.New("account not found")
)

// Postgres implements the ledger on database/sql.
//
// Expected schema:
//
//	CREATE TABLE accounts (
//	    account TEXT PRIMARY KEY,
//	    balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
//	);
//
//	CREATE TABLE transfers (
//	    id           UUID PRIMARY KEY,
//	    external_ref TEXT NOT NULL UNIQUE,
//	    from_account TEXT NOT NULL,
//	    to_account   TEXT NOT NULL,
//	    amount       BIGINT NOT NULL,
//	    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Transfer moves amount between two accounts inside one transaction. The
// external_ref makes retries idempotent: a ref already journaled returns the
// original transfer id with duplicate=true and moves nothing. Row locks are
// taken in account-name order, which rules out lock cycles between
// concurrent transfers.
func (p *Postgres) Transfer(ctx context.Context, from, to string, amount int64, externalRef string) (transferID string, duplicate bool, err error) {
	if amount <= 0 {
		return "", false, fmt.Errorf("amount must be positive")
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, err
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM transfers WHERE external_ref=$1`, externalRef).Scan(&existing)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, err
	}

	locked := []string{from, to}
	sort.Strings(locked)
	for _, acct := range locked {
		var bal int64
		err = tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE account=$1 FOR UPDATE`, acct).Scan(&bal)
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, fmt.Errorf("%w: %s", ErrAccountNotFound, acct)
		}
		if err != nil {
			return "", false, err
		}
		if acct == from && bal < amount {
			return "", false, ErrInsufficientFunds
		}
	}

	if _, err = tx.ExecContext(ctx, `UPDATE accounts SET balance = balance - $1 WHERE account=$2`, amount, from); err != nil {
		return "", false, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE accounts SET balance = balance + $1 WHERE account=$2`, amount, to); err != nil {
		return "", false, err
	}

	id := uuid.New().String()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO transfers(id, external_ref, from_account, to_account, amount)
		VALUES($1,$2,$3,$4,$5)
	`, id, externalRef, from, to, amount); err != nil {
		return "", false, err
	}

	if err = tx.Commit(); err != nil {
		return "", false, err
	}
	return id, false, nil
}

// Mint credits an account, creating it if needed. Local and test money
// supply only.
func (p *Postgres) Mint(ctx context.Context, account string, amount int64) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	err = p.db.QueryRowContext(ctx, `
		INSERT INTO accounts(account, balance) VALUES($1,$2)
		ON CONFLICT (account) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance
		RETURNING balance
	`, account, amount).Scan(&newBalance)
	return newBalance, err
}

func (p *Postgres) Balance(ctx context.Context, account string) (int64, error) {
	var bal int64
	err := p.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE account=$1`, account).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	return bal, err
}
