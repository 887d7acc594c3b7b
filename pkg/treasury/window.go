package treasury

import (
	"math/big"
	"time"
)

type WindowKind string

const (
	WindowDaily  WindowKind = "daily"
	WindowWeekly WindowKind = "weekly"
)

// Duration returns the fixed bucket length for the window kind
func (k WindowKind) Duration() time.Duration {
	if k == WindowWeekly {
		return 7 * 24 * time.Hour
	}

	return 24 * time.Hour
}

// SpendingWindow accumulates the amounts released within one fixed-duration
// bucket anchored at the unix epoch. Windows live in the ephemeral storage
// tier: a missing record means the window has not started and consumed is zero.
type SpendingWindow struct {
	Kind        WindowKind `json:"kind"`
	WindowStart int64      `json:"window_start"`
	Consumed    *big.Int   `json:"consumed"`
}
