package service

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/veilstar/wager-platform/internal/verifier-service/groth16"
	"github.com/veilstar/wager-platform/internal/verifier-service/store"
)

var verifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "groth16_verifications_total",
	Help: "Groth16 proof verifications by result.",
}, []string{"result"})

// Service fronts the pairing verifier: key installation plus proof checks,
// with an LRU of past results so a replayed (vk, proof, inputs) triple does
// not pay for the pairing twice.
type Service struct {
	log   *zap.Logger
	store store.Store
	cache *lru.Cache
}

func New(log *zap.Logger, st store.Store, cacheSize int) (*Service, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{log: log, store: st, cache: cache}, nil
}

// SetVerificationKey validates and installs key material under vk_id.
// Admin gating happens at the HTTP edge; reinstalling an id overwrites it.
func (s *Service) SetVerificationKey(ctx context.Context, vkID [32]byte, vk *groth16.VerificationKey) error {
	if err := vk.Validate(); err != nil {
		return err
	}
	if err := s.store.Put(ctx, vkID, vk); err != nil {
		return err
	}
	s.log.Info("verification key installed",
		zap.String("vk_id", shortHex(vkID)),
		zap.Int("public_inputs", vk.PublicInputs()),
	)
	return nil
}

// VerifyRoundProof checks proof against the stored key and public inputs.
// Always returns a boolean; a missing key, malformed proof or failed pairing
// is an invalid proof, not an error.
func (s *Service) VerifyRoundProof(ctx context.Context, vkID [32]byte, proof []byte, publicInputs [][32]byte) bool {
	digest := resultDigest(vkID, proof, publicInputs)
	if cached, ok := s.cache.Get(digest); ok {
		return cached.(bool)
	}

	vk, err := s.store.Get(ctx, vkID)
	if err != nil {
		verifications.WithLabelValues("no_key").Inc()
		return false
	}

	valid := groth16.Verify(vk, proof, publicInputs)
	s.cache.Add(digest, valid)

	if valid {
		verifications.WithLabelValues("valid").Inc()
	} else {
		verifications.WithLabelValues("invalid").Inc()
	}
	return valid
}

func (s *Service) HasKey(ctx context.Context, vkID [32]byte) (bool, error) {
	return s.store.Has(ctx, vkID)
}

func resultDigest(vkID [32]byte, proof []byte, publicInputs [][32]byte) [32]byte {
	h := sha256.New()
	h.Write(vkID[:])
	h.Write(proof)

	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(publicInputs)))
	h.Write(n[:])
	for _, input := range publicInputs {
		h.Write(input[:])
	}

	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

func shortHex(id [32]byte) string {
	return hex.EncodeToString(id[:4])
}
