package commitment

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
)

// Side identifies one of the two outcomes a wager can back.
type Side uint8

const (
	SidePlayer1 Side = 0
	SidePlayer2 Side = 1
)

var ErrInvalidSide = errors.New("invalid side")

func (s Side) String() string {
	switch s {
	case SidePlayer1:
		return "player1"
	case SidePlayer2:
		return "player2"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// ParseSide validates a raw side byte coming in over the wire.
func ParseSide(v uint8) (Side, error) {
	switch Side(v) {
	case SidePlayer1, SidePlayer2:
		return Side(v), nil
	default:
		return 0, ErrInvalidSide
	}
}

// SaltSize is the required salt length. Since the side byte carries only one
// bit, the salt's entropy is what keeps a commitment hiding; anything shorter
// than 32 full-entropy bytes is rejected at the API edge.
const SaltSize = 32

// Commit produces the hash commitment SHA-256(side_byte || salt).
func Commit(side Side, salt [SaltSize]byte) [32]byte {
	h := sha256.New()
	h.Write([]byte{byte(side)})
	h.Write(salt[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Open recomputes the commitment for (side, salt) and compares it against the
// published one. A mismatch means the opener is lying about one of the two.
func Open(c [32]byte, side Side, salt [SaltSize]byte) bool {
	want := Commit(side, salt)
	return subtle.ConstantTimeCompare(c[:], want[:]) == 1
}

// NewSalt draws a fresh 32-byte salt from crypto/rand.
func NewSalt() ([SaltSize]byte, error) {
	var salt [SaltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return salt, fmt.Errorf("read salt: %w", err)
	}
	return salt, nil
}
