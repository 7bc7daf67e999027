package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransferMovesFunds(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, err := m.Mint(ctx, "alice", 1_000)
	require.NoError(t, err)
	_, err = m.Mint(ctx, "escrow", 1)
	require.NoError(t, err)

	id, dup, err := m.Transfer(ctx, "alice", "escrow", 400, "ref-1")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.False(t, dup)

	bal, err := m.Balance(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(600), bal)
	bal, err = m.Balance(ctx, "escrow")
	require.NoError(t, err)
	require.Equal(t, int64(401), bal)
}

func TestTransferIdempotentByExternalRef(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, err := m.Mint(ctx, "alice", 1_000)
	require.NoError(t, err)
	_, err = m.Mint(ctx, "escrow", 1)
	require.NoError(t, err)

	first, dup, err := m.Transfer(ctx, "alice", "escrow", 400, "ref-1")
	require.NoError(t, err)
	require.False(t, dup)

	// A retry with the same ref returns the original id and moves nothing.
	second, dup, err := m.Transfer(ctx, "alice", "escrow", 400, "ref-1")
	require.NoError(t, err)
	require.True(t, dup)
	require.Equal(t, first, second)

	bal, err := m.Balance(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(600), bal)
}

func TestTransferRejectsOverdraft(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, err := m.Mint(ctx, "alice", 100)
	require.NoError(t, err)
	_, err = m.Mint(ctx, "escrow", 1)
	require.NoError(t, err)

	_, _, err = m.Transfer(ctx, "alice", "escrow", 101, "ref-1")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	bal, err := m.Balance(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(100), bal)
}

func TestTransferUnknownAccounts(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, err := m.Mint(ctx, "alice", 100)
	require.NoError(t, err)

	_, _, err = m.Transfer(ctx, "ghost", "alice", 10, "ref-1")
	require.ErrorIs(t, err, ErrAccountNotFound)
	_, _, err = m.Transfer(ctx, "alice", "ghost", 10, "ref-2")
	require.ErrorIs(t, err, ErrAccountNotFound)

	_, err = m.Balance(ctx, "ghost")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestTransferRejectsNonPositiveAmounts(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, _, err := m.Transfer(ctx, "a", "b", 0, "ref-1")
	require.Error(t, err)
	_, _, err = m.Transfer(ctx, "a", "b", -5, "ref-2")
	require.Error(t, err)
}
