package treasury

import "math/big"

// Config is the treasury-wide policy, mutable only by an admin.
// Amount fields are arbitrary precision; a nil or zero limit disables that cap.
// TimelockDelay is in seconds.
type Config struct {
	Threshold         int      `json:"threshold"`
	TimelockThreshold *big.Int `json:"timelock_threshold"`
	TimelockDelay     int64    `json:"timelock_delay"`
	DailyLimit        *big.Int `json:"daily_limit"`
	WeeklyLimit       *big.Int `json:"weekly_limit"`
}
