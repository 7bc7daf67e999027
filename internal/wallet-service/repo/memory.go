package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process ledger for tests and local runs. Same semantics as
// Postgres: idempotent transfers by external_ref, no negative balances.
type Memory struct {
	mu       sync.Mutex
	balances map[string]int64
	refs     map[string]string // external_ref -> transfer id
}

func NewMemory() *Memory {
	return &Memory{
		balances: make(map[string]int64),
		refs:     make(map[string]string),
	}
}

func (m *Memory) Transfer(_ context.Context, from, to string, amount int64, externalRef string) (string, bool, error) {
	if amount <= 0 {
		return "", false, fmt.Errorf("amount must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.refs[externalRef]; ok {
		return id, true, nil
	}
	fromBal, ok := m.balances[from]
	if !ok {
		return "", false, fmt.Errorf("%w: %s", ErrAccountNotFound, from)
	}
	if _, ok := m.balances[to]; !ok {
		return "", false, fmt.Errorf("%w: %s", ErrAccountNotFound, to)
	}
	if fromBal < amount {
		return "", false, ErrInsufficientFunds
	}

	m.balances[from] -= amount
	m.balances[to] += amount
	id := uuid.New().String()
	m.refs[externalRef] = id
	return id, false, nil
}

func (m *Memory) Mint(_ context.Context, account string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances[account] += amount
	return m.balances[account], nil
}

func (m *Memory) Balance(_ context.Context, account string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bal, ok := m.balances[account]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	return bal, nil
}
