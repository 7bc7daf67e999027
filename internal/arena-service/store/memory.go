package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and local runs.
type Memory struct {
	mu            sync.Mutex
	matches       map[int64]Match
	commits       map[SlotKey]RoundCommit
	verifications map[SlotKey]RoundVerification
	outcomes      map[int64]MatchOutcome
	gate          GateState
}

func NewMemory() *Memory {
	return &Memory{
		matches:       make(map[int64]Match),
		commits:       make(map[SlotKey]RoundCommit),
		verifications: make(map[SlotKey]RoundVerification),
		outcomes:      make(map[int64]MatchOutcome),
	}
}

func (m *Memory) InsertMatch(_ context.Context, match *Match) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gate.SessionCounter++
	cp := *match
	cp.SessionID = m.gate.SessionCounter
	m.matches[cp.SessionID] = cp
	return cp.SessionID, nil
}

func (m *Memory) GetMatch(_ context.Context, sessionID int64) (*Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	match, ok := m.matches[sessionID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	cp := match
	return &cp, nil
}

func (m *Memory) PutMatch(_ context.Context, match *Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.matches[match.SessionID]; !ok {
		return ErrMatchNotFound
	}
	m.matches[match.SessionID] = *match
	return nil
}

func (m *Memory) GetCommit(_ context.Context, key SlotKey) (*RoundCommit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.commits[key]
	if !ok {
		return nil, ErrCommitNotFound
	}
	cp := c
	return &cp, nil
}

func (m *Memory) PutCommit(_ context.Context, c *RoundCommit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commits[c.Key] = *c
	return nil
}

func (m *Memory) GetVerification(_ context.Context, key SlotKey) (*RoundVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.verifications[key]
	if !ok {
		return nil, ErrVerificationNotFound
	}
	cp := v
	return &cp, nil
}

func (m *Memory) PutVerification(_ context.Context, v *RoundVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.verifications[v.Key] = *v
	return nil
}

func (m *Memory) VerifiedBySide(_ context.Context, sessionID int64) (map[uint8]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[uint8]int)
	for key := range m.verifications {
		if key.SessionID == sessionID {
			out[uint8(key.Side)]++
		}
	}
	return out, nil
}

func (m *Memory) GetOutcome(_ context.Context, sessionID int64) (*MatchOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.outcomes[sessionID]
	if !ok {
		return nil, ErrOutcomeNotFound
	}
	cp := o
	return &cp, nil
}

func (m *Memory) InsertOutcome(_ context.Context, o *MatchOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.outcomes[o.SessionID]; exists {
		return ErrOutcomeAlreadyBound
	}
	m.outcomes[o.SessionID] = *o
	return nil
}

func (m *Memory) GetGate(_ context.Context) (*GateState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := m.gate
	if m.gate.VkID != nil {
		cp.VkID = append([]byte(nil), m.gate.VkID...)
	}
	return &cp, nil
}

func (m *Memory) PutGate(_ context.Context, g *GateState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *g
	if g.VkID != nil {
		cp.VkID = append([]byte(nil), g.VkID...)
	}
	m.gate = cp
	return nil
}
