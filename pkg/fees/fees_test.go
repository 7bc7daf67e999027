package fees

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeeRoundsUp(t *testing.T) {
	// 1% of 101 is 1.01, charged as 2.
	require.Equal(t, int64(2), Betting.Fee(101))
	// Exact multiples do not round.
	require.Equal(t, int64(1), Betting.Fee(100))
	require.Equal(t, int64(100), Betting.Fee(10_000))
}

func TestFeeNeverZeroForPositiveAmount(t *testing.T) {
	require.Equal(t, int64(1), Betting.Fee(1))
	require.Equal(t, int64(1), Stake.Fee(1))
	// 10 bps of 9,999 is 9.999, charged as 10.
	require.Equal(t, int64(10), Stake.Fee(9_999))
	require.Equal(t, int64(10), Stake.Fee(10_000))
	require.Equal(t, int64(11), Stake.Fee(10_001))
}

func TestFeeNonPositiveAmounts(t *testing.T) {
	require.Equal(t, int64(0), Betting.Fee(0))
	require.Equal(t, int64(0), Betting.Fee(-5))
}

func TestWithFee(t *testing.T) {
	require.Equal(t, int64(1_010_000), Betting.WithFee(1_000_000))
	require.Equal(t, int64(1_001_000), Stake.WithFee(1_000_000))
}

func TestSchedules(t *testing.T) {
	require.Equal(t, int64(100), Betting.Bps)
	require.Equal(t, int64(10), Stake.Bps)
}
