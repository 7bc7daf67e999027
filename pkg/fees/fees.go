package fees

// Schedule computes protocol fees in basis points over integer minor-unit
// amounts. All escrow math stays in integers; the division rounds up so the
// protocol never undercharges by a fraction of a unit.
type Schedule struct {
	Bps int64
}

// Betting is the spectator-betting fee schedule (1%).
var Betting = Schedule{Bps: 100}

// Stake is the match-stake fee schedule (0.1%).
var Stake = Schedule{Bps: 10}

// Fee returns ceil(amount * bps / 10000). Non-positive amounts carry no fee.
func (s Schedule) Fee(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	return (amount*s.Bps + 9_999) / 10_000
}

// WithFee returns the gross amount a depositor must transfer: stake plus fee.
func (s Schedule) WithFee(amount int64) int64 {
	return amount + s.Fee(amount)
}
