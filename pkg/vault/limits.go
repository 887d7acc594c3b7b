package vault

import (
	"fmt"
	"math/big"
	"time"

	"github.com/commonsfund/treasury/pkg/treasury"
)

// reserveBudget enforces the daily and weekly spending caps for one release.
// Check and reserve happen in one step under the vault lock: if either cap
// would be exceeded it fails with ErrLimitExceeded and the counters stay
// untouched. The returned windows carry the incremented counters but are not
// persisted here; callers write them back only after the release itself is
// recorded, so a failed release never burns budget. Every release, manual or
// recurring, routes through here, so the caps hold globally rather than per
// subsystem.
func (v *Vault) reserveBudget(cfg *treasury.Config, amount *big.Int, now time.Time) ([]*treasury.SpendingWindow, error) {
	daily, err := v.loadWindow(treasury.WindowDaily, now)
	if err != nil {
		return nil, err
	}

	weekly, err := v.loadWindow(treasury.WindowWeekly, now)
	if err != nil {
		return nil, err
	}

	if exceeds(daily.Consumed, amount, cfg.DailyLimit) {
		return nil, fmt.Errorf("daily window: %w", treasury.ErrLimitExceeded)
	}

	if exceeds(weekly.Consumed, amount, cfg.WeeklyLimit) {
		return nil, fmt.Errorf("weekly window: %w", treasury.ErrLimitExceeded)
	}

	daily.Consumed = new(big.Int).Add(daily.Consumed, amount)
	weekly.Consumed = new(big.Int).Add(weekly.Consumed, amount)

	return []*treasury.SpendingWindow{daily, weekly}, nil
}

// loadWindow loads the current bucket for the kind, lazily initializing it.
// Buckets are fixed-size and anchored at the unix epoch, not per user. A
// stored window whose start predates the current bucket boundary is stale and
// resets to zero, which is equivalent to eviction but tolerant of records the
// ephemeral tier has not evicted yet.
func (v *Vault) loadWindow(kind treasury.WindowKind, now time.Time) (*treasury.SpendingWindow, error) {
	start := windowStart(kind, now)

	w, err := v.windows.Window(kind)
	if err != nil {
		return nil, err
	}

	if w == nil || w.WindowStart < start {
		return &treasury.SpendingWindow{
			Kind:        kind,
			WindowStart: start,
			Consumed:    new(big.Int),
		}, nil
	}

	return w, nil
}

func windowStart(kind treasury.WindowKind, now time.Time) int64 {
	size := int64(kind.Duration() / time.Second)

	return now.Unix() - now.Unix()%size
}

// exceeds reports whether consumed+amount would cross the limit; a nil or zero limit never does
func exceeds(consumed, amount, limit *big.Int) bool {
	if limit == nil || limit.Sign() == 0 {
		return false
	}

	return new(big.Int).Add(consumed, amount).Cmp(limit) > 0
}

func negative(n *big.Int) bool {
	return n != nil && n.Sign() < 0
}
