package groth16

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/stretchr/testify/require"
)

// selfConsistentInstance builds a key/proof pair that satisfies the pairing
// equation by construction:
//
//	A = α and B = β cancel the first two factors,
//	IC = [G1, G1] with input 2 gives vk_x = 3·G1,
//	γ = δ = G2 and C = -3·G1 cancel the rest.
func selfConsistentInstance(t *testing.T) (*VerificationKey, []byte, [][32]byte) {
	t.Helper()
	_, _, g1, g2 := bn254.Generators()

	var alpha bn254.G1Affine
	alpha.ScalarMultiplication(&g1, big.NewInt(5))
	var beta bn254.G2Affine
	beta.ScalarMultiplication(&g2, big.NewInt(7))

	var c bn254.G1Affine
	c.ScalarMultiplication(&g1, big.NewInt(3))
	c.Neg(&c)

	vk := &VerificationKey{
		AlphaG1: alpha.Marshal(),
		BetaG2:  beta.Marshal(),
		GammaG2: g2.Marshal(),
		DeltaG2: g2.Marshal(),
		IC:      [][]byte{g1.Marshal(), g1.Marshal()},
	}

	proof := make([]byte, 0, ProofSize)
	proof = append(proof, alpha.Marshal()...)
	proof = append(proof, beta.Marshal()...)
	proof = append(proof, c.Marshal()...)

	var input [32]byte
	input[31] = 2
	return vk, proof, [][32]byte{input}
}

func TestVerifyAcceptsConsistentInstance(t *testing.T) {
	vk, proof, inputs := selfConsistentInstance(t)
	require.NoError(t, vk.Validate())
	require.Equal(t, 1, vk.PublicInputs())
	require.True(t, Verify(vk, proof, inputs))
}

func TestVerifyRejectsPerturbedInput(t *testing.T) {
	vk, proof, inputs := selfConsistentInstance(t)
	inputs[0][31] = 3
	require.False(t, Verify(vk, proof, inputs))
}

func TestVerifyRejectsTamperedProof(t *testing.T) {
	vk, proof, inputs := selfConsistentInstance(t)

	// Swap C for a different valid point, breaking the pairing product.
	_, _, g1, _ := bn254.Generators()
	copy(proof[192:], g1.Marshal())
	require.False(t, Verify(vk, proof, inputs))
}

func TestVerifyRejectsWrongProofLength(t *testing.T) {
	vk, proof, inputs := selfConsistentInstance(t)
	require.False(t, Verify(vk, proof[:ProofSize-1], inputs))
	require.False(t, Verify(vk, append(proof, 0x00), inputs))
	require.False(t, Verify(vk, nil, inputs))
}

func TestVerifyRejectsGarbageProofBytes(t *testing.T) {
	vk, proof, inputs := selfConsistentInstance(t)
	garbage := make([]byte, len(proof))
	for i := range garbage {
		garbage[i] = 0xFF
	}
	require.False(t, Verify(vk, garbage, inputs))
}

func TestVerifyRejectsInputCountMismatch(t *testing.T) {
	vk, proof, inputs := selfConsistentInstance(t)
	require.False(t, Verify(vk, proof, nil))
	require.False(t, Verify(vk, proof, append(inputs, [32]byte{})))
}

func TestVerifyNilKey(t *testing.T) {
	_, proof, inputs := selfConsistentInstance(t)
	require.False(t, Verify(nil, proof, inputs))
	require.False(t, Verify(&VerificationKey{}, proof, inputs))
}

func TestValidateRejectsEmptyIC(t *testing.T) {
	vk, _, _ := selfConsistentInstance(t)
	vk.IC = nil
	require.ErrorIs(t, vk.Validate(), ErrEmptyIC)
}

func TestValidateRejectsTruncatedPoint(t *testing.T) {
	vk, _, _ := selfConsistentInstance(t)
	vk.AlphaG1 = vk.AlphaG1[:32]
	require.ErrorIs(t, vk.Validate(), ErrBadPointEncoding)
}

func TestValidateRejectsNonCurveBytes(t *testing.T) {
	vk, _, _ := selfConsistentInstance(t)
	bad := make([]byte, 64)
	for i := range bad {
		bad[i] = 0xFF
	}
	vk.IC[0] = bad
	require.ErrorIs(t, vk.Validate(), ErrBadPointEncoding)
}
