package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and local runs.
type Memory struct {
	mu       sync.Mutex
	pools    map[int64]Pool
	bets     map[int64]map[string]BetCommit
	platform PlatformState
}

func NewMemory() *Memory {
	return &Memory{
		pools: make(map[int64]Pool),
		bets:  make(map[int64]map[string]BetCommit),
	}
}

func (m *Memory) CreatePool(_ context.Context, p *Pool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.platform.PoolCounter++
	cp := *p
	cp.ID = m.platform.PoolCounter
	m.pools[cp.ID] = cp
	return cp.ID, nil
}

func (m *Memory) GetPool(_ context.Context, id int64) (*Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pools[id]
	if !ok {
		return nil, ErrPoolNotFound
	}
	cp := p
	return &cp, nil
}

func (m *Memory) PutPool(_ context.Context, p *Pool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pools[p.ID]; !ok {
		return ErrPoolNotFound
	}
	m.pools[p.ID] = *p
	return nil
}

func (m *Memory) InsertBet(_ context.Context, b *BetCommit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byBettor, ok := m.bets[b.PoolID]
	if !ok {
		byBettor = make(map[string]BetCommit)
		m.bets[b.PoolID] = byBettor
	}
	if _, exists := byBettor[b.Bettor]; exists {
		return ErrDuplicateBet
	}
	byBettor[b.Bettor] = *b
	return nil
}

func (m *Memory) GetBet(_ context.Context, poolID int64, bettor string) (*BetCommit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bets[poolID][bettor]
	if !ok {
		return nil, ErrBetNotFound
	}
	cp := b
	return &cp, nil
}

func (m *Memory) PutBet(_ context.Context, b *BetCommit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bets[b.PoolID][b.Bettor]; !ok {
		return ErrBetNotFound
	}
	m.bets[b.PoolID][b.Bettor] = *b
	return nil
}

func (m *Memory) ListBets(_ context.Context, poolID int64) ([]*BetCommit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*BetCommit, 0, len(m.bets[poolID]))
	for _, b := range m.bets[poolID] {
		cp := b
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) GetPlatform(_ context.Context) (*PlatformState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := m.platform
	if m.platform.VerifierVkID != nil {
		cp.VerifierVkID = append([]byte(nil), m.platform.VerifierVkID...)
	}
	return &cp, nil
}

func (m *Memory) PutPlatform(_ context.Context, s *PlatformState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	if s.VerifierVkID != nil {
		cp.VerifierVkID = append([]byte(nil), s.VerifierVkID...)
	}
	// The counter only advances through CreatePool; a caller working from a
	// stale snapshot must not rewind it.
	cp.PoolCounter = m.platform.PoolCounter
	m.platform = cp
	return nil
}
