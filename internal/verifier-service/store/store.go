package store

import (
	"context"
	"errors"

	"github.com/veilstar/wager-platform/internal/verifier-service/groth16"
)

var ErrKeyNotFound = errors.New("verification key not found")

// Store persists verification keys by their 32-byte key id.
type Store interface {
	Put(ctx context.Context, vkID [32]byte, vk *groth16.VerificationKey) error
	Get(ctx context.Context, vkID [32]byte) (*groth16.VerificationKey, error)
	Has(ctx context.Context, vkID [32]byte) (bool, error)
}
