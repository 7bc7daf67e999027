// Package groth16 verifies Groth16 proofs over BN254.
//
// The on-the-wire proof is exactly 256 bytes of uncompressed affine points:
// A (G1, bytes 0..64), B (G2, bytes 64..192), C (G1, bytes 192..256).
// Verification evaluates the pairing product
//
//	e(-A, B) · e(α, β) · e(vk_x, γ) · e(C, δ) == 1
//
// with vk_x = IC[0] + Σ input[i]·IC[i+1]. Verification failure is a normal
// outcome: malformed bytes, missing keys and failed pairings all come back as
// false, never as a panic or an error.
package groth16

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

const (
	// ProofSize is the fixed Groth16 proof encoding length.
	ProofSize = 256

	g1Size = 64
	g2Size = 128
)

var (
	ErrEmptyIC          = errors.New("verification key needs at least one ic point")
	ErrBadPointEncoding = errors.New("malformed curve point encoding")
)

// VerificationKey holds the fixed curve constants of one circuit plus the
// input-coefficient points, one more than the number of public inputs the key
// supports. Raw byte form so it can round-trip through storage untouched.
type VerificationKey struct {
	AlphaG1 []byte   // 64 bytes
	BetaG2  []byte   // 128 bytes
	GammaG2 []byte   // 128 bytes
	DeltaG2 []byte   // 128 bytes
	IC      [][]byte // each 64 bytes, len >= 1
}

// PublicInputs returns how many public inputs this key supports.
func (vk *VerificationKey) PublicInputs() int {
	return len(vk.IC) - 1
}

// Validate checks the key material byte-for-byte: every element must parse as
// a point in the right subgroup, and the IC list must not be empty. Run at
// install time so a bad key is rejected up front rather than silently failing
// every proof later.
func (vk *VerificationKey) Validate() error {
	if len(vk.IC) == 0 {
		return ErrEmptyIC
	}
	if _, err := parseG1(vk.AlphaG1); err != nil {
		return err
	}
	for _, raw := range [][]byte{vk.BetaG2, vk.GammaG2, vk.DeltaG2} {
		if _, err := parseG2(raw); err != nil {
			return err
		}
	}
	for _, raw := range vk.IC {
		if _, err := parseG1(raw); err != nil {
			return err
		}
	}
	return nil
}

// Verify runs the bilinear pairing check of a 256-byte proof against the key
// and the caller's public inputs. Fails closed on everything.
func Verify(vk *VerificationKey, proof []byte, publicInputs [][32]byte) bool {
	if vk == nil || len(vk.IC) == 0 {
		return false
	}
	if len(proof) != ProofSize {
		return false
	}
	if len(vk.IC) != len(publicInputs)+1 {
		return false
	}

	proofA, err := parseG1(proof[0:g1Size])
	if err != nil {
		return false
	}
	proofB, err := parseG2(proof[g1Size : g1Size+g2Size])
	if err != nil {
		return false
	}
	proofC, err := parseG1(proof[g1Size+g2Size : ProofSize])
	if err != nil {
		return false
	}

	alpha, err := parseG1(vk.AlphaG1)
	if err != nil {
		return false
	}
	beta, err := parseG2(vk.BetaG2)
	if err != nil {
		return false
	}
	gamma, err := parseG2(vk.GammaG2)
	if err != nil {
		return false
	}
	delta, err := parseG2(vk.DeltaG2)
	if err != nil {
		return false
	}

	// vk_x = IC[0] + Σ input[i]·IC[i+1]
	vkX, err := parseG1(vk.IC[0])
	if err != nil {
		return false
	}
	for i, input := range publicInputs {
		icPoint, err := parseG1(vk.IC[i+1])
		if err != nil {
			return false
		}

		var scalar fr.Element
		scalar.SetBytes(input[:])
		if scalar.IsZero() {
			continue
		}

		var term bn254.G1Affine
		term.ScalarMultiplication(&icPoint, scalar.BigInt(new(big.Int)))
		vkX.Add(&vkX, &term)
	}

	var negA bn254.G1Affine
	negA.Neg(&proofA)

	ok, err := bn254.PairingCheck(
		[]bn254.G1Affine{negA, alpha, vkX, proofC},
		[]bn254.G2Affine{proofB, beta, gamma, delta},
	)
	if err != nil {
		return false
	}
	return ok
}

func parseG1(raw []byte) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	if len(raw) != g1Size {
		return p, ErrBadPointEncoding
	}
	if err := p.Unmarshal(raw); err != nil {
		return p, ErrBadPointEncoding
	}
	if !p.IsInSubGroup() {
		return p, ErrBadPointEncoding
	}
	return p, nil
}

func parseG2(raw []byte) (bn254.G2Affine, error) {
	var p bn254.G2Affine
	if len(raw) != g2Size {
		return p, ErrBadPointEncoding
	}
	if err := p.Unmarshal(raw); err != nil {
		return p, ErrBadPointEncoding
	}
	if !p.IsInSubGroup() {
		return p, ErrBadPointEncoding
	}
	return p, nil
}
