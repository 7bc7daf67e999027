package store

import (
	"context"
	"sync"

	"github.com/veilstar/wager-platform/internal/verifier-service/groth16"
)

// Memory is the in-process Store used by tests and local runs.
type Memory struct {
	mu   sync.RWMutex
	keys map[[32]byte]*groth16.VerificationKey
}

func NewMemory() *Memory {
	return &Memory{keys: make(map[[32]byte]*groth16.VerificationKey)}
}

func (m *Memory) Put(_ context.Context, vkID [32]byte, vk *groth16.VerificationKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[vkID] = vk
	return nil
}

func (m *Memory) Get(_ context.Context, vkID [32]byte) (*groth16.VerificationKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vk, ok := m.keys[vkID]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return vk, nil
}

func (m *Memory) Has(_ context.Context, vkID [32]byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[vkID]
	return ok, nil
}
