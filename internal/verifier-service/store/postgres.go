package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/veilstar/wager-platform/internal/verifier-service/groth16"
)

// Postgres persists verification keys. The variable-length IC list is stored
// as one bytea of concatenated 64-byte points.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Put(ctx context.Context, vkID [32]byte, vk *groth16.VerificationKey) error {
	ic := make([]byte, 0, len(vk.IC)*64)
	for _, point := range vk.IC {
		ic = append(ic, point...)
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO verification_keys (vk_id, alpha_g1, beta_g2, gamma_g2, delta_g2, ic)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (vk_id) DO UPDATE
		SET alpha_g1=$2, beta_g2=$3, gamma_g2=$4, delta_g2=$5, ic=$6`,
		vkID[:], vk.AlphaG1, vk.BetaG2, vk.GammaG2, vk.DeltaG2, ic,
	)
	return err
}

func (p *Postgres) Get(ctx context.Context, vkID [32]byte) (*groth16.VerificationKey, error) {
	vk := &groth16.VerificationKey{}
	var ic []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT alpha_g1, beta_g2, gamma_g2, delta_g2, ic
		FROM verification_keys WHERE vk_id=$1`, vkID[:],
	).Scan(&vk.AlphaG1, &vk.BetaG2, &vk.GammaG2, &vk.DeltaG2, &ic)
	if err == sql.ErrNoRows {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(ic)%64 != 0 {
		return nil, fmt.Errorf("corrupt ic column for key %x: %d bytes", vkID[:4], len(ic))
	}
	for off := 0; off < len(ic); off += 64 {
		point := make([]byte, 64)
		copy(point, ic[off:off+64])
		vk.IC = append(vk.IC, point)
	}
	return vk, nil
}

func (p *Postgres) Has(ctx context.Context, vkID [32]byte) (bool, error) {
	var one int
	err := p.db.QueryRowContext(ctx, `SELECT 1 FROM verification_keys WHERE vk_id=$1`, vkID[:]).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
