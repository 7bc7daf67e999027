package commitment

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommitMatchesManualHash(t *testing.T) {
	var salt [32]byte
	for i := range salt {
		salt[i] = byte(i)
	}

	c := Commit(SidePlayer2, salt)

	h := sha256.New()
	h.Write([]byte{byte(SidePlayer2)})
	h.Write(salt[:])
	require.Equal(t, h.Sum(nil), c[:])
}

func TestOpenRoundTrip(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)

	c := Commit(SidePlayer1, salt)
	require.True(t, Open(c, SidePlayer1, salt))
}

func TestOpenRejectsWrongSide(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)

	c := Commit(SidePlayer1, salt)
	require.False(t, Open(c, SidePlayer2, salt))
}

func TestOpenRejectsWrongSalt(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)

	c := Commit(SidePlayer1, salt)
	salt[0] ^= 0x01
	require.False(t, Open(c, SidePlayer1, salt))
}

func TestCommitDependsOnSalt(t *testing.T) {
	a, err := NewSalt()
	require.NoError(t, err)
	b, err := NewSalt()
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	require.NotEqual(t, Commit(SidePlayer1, a), Commit(SidePlayer1, b))
}

func TestParseSide(t *testing.T) {
	s, err := ParseSide(0)
	require.NoError(t, err)
	require.Equal(t, SidePlayer1, s)

	s, err = ParseSide(1)
	require.NoError(t, err)
	require.Equal(t, SidePlayer2, s)

	_, err = ParseSide(2)
	require.ErrorIs(t, err, ErrInvalidSide)

	_, err = ParseSide(255)
	require.ErrorIs(t, err, ErrInvalidSide)
}
