package vault

import (
	"math/big"
	"time"

	"github.com/commonsfund/treasury/pkg/treasury"
)

// requiredUnlock returns the ledger time before which a transfer of the given
// amount may not be released, or the zero time when no delay applies. Amounts
// at or above the configured threshold are delayed; a nil threshold disables
// the timelock entirely.
func requiredUnlock(cfg *treasury.Config, amount *big.Int, now time.Time) time.Time {
	if cfg.TimelockThreshold == nil {
		return time.Time{}
	}

	if amount.Cmp(cfg.TimelockThreshold) < 0 {
		return time.Time{}
	}

	return now.Add(time.Duration(cfg.TimelockDelay) * time.Second)
}

// isUnlocked reports whether the delay has elapsed; the boundary instant counts as unlocked
func isUnlocked(unlockAt, now time.Time) bool {
	return !now.Before(unlockAt)
}
