package vault

import (
	"fmt"
	"sync"
	"time"

	"github.com/commonsfund/treasury/pkg/treasury"
)

// Vault is the treasury's authorization and fund-release state machine.
// Every public method is one invocation: it authenticates the caller against
// the signer set, mutates at most one state machine and appends exactly one
// event. Invocations are serialized by an internal lock so threshold checks
// and spending counters are always evaluated against a consistent snapshot.
type Vault struct {
	mu sync.Mutex

	settings  SettingsStore
	proposals ProposalStore
	payments  PaymentStore
	windows   WindowStore
	emitter   Emitter

	now func() time.Time
}

func New(settings SettingsStore, proposals ProposalStore, payments PaymentStore, windows WindowStore, emitter Emitter) *Vault {
	return &Vault{
		settings:  settings,
		proposals: proposals,
		payments:  payments,
		windows:   windows,
		emitter:   emitter,
		now:       time.Now,
	}
}

// SetClock replaces the wall clock, used by tests to drive time-gated transitions
func (v *Vault) SetClock(now func() time.Time) {
	v.now = now
}

// Initialize seeds the config and grants the acting identity the admin role.
// It can only ever succeed once per treasury instance.
func (v *Vault) Initialize(actor string, cfg *treasury.Config) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	existing, err := v.settings.Config()
	if err != nil {
		return err
	}

	if existing != nil {
		return fmt.Errorf("already initialized: %w", treasury.ErrInvalidOperation)
	}

	// the signer set only holds the first admin at this point, so the
	// threshold upper bound is not enforced until the next config update
	if err := validateConfig(cfg); err != nil {
		return err
	}

	if err := v.settings.SetRole(actor, treasury.RoleAdmin); err != nil {
		return err
	}

	if err := v.settings.SetConfig(cfg); err != nil {
		return err
	}

	return v.emitter.Emit(treasury.NewEvent(treasury.EventInitialized, actor, cfg.Threshold))
}

// UpdateConfig replaces the treasury policy, admin only
func (v *Vault) UpdateConfig(actor string, cfg *treasury.Config) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := v.loadConfig(); err != nil {
		return err
	}

	role, err := v.settings.Role(actor)
	if err != nil {
		return err
	}

	if !role.CanManageSigners() {
		return fmt.Errorf("config is admin only: %w", treasury.ErrUnauthorized)
	}

	if err := validateConfig(cfg); err != nil {
		return err
	}

	signers, err := v.settings.CountSigners()
	if err != nil {
		return err
	}

	if cfg.Threshold > signers {
		return fmt.Errorf("threshold exceeds signer count: %w", treasury.ErrInvalidOperation)
	}

	if err := v.settings.SetConfig(cfg); err != nil {
		return err
	}

	return v.emitter.Emit(treasury.NewEvent(treasury.EventConfigUpdated, actor, cfg.Threshold))
}

// Config returns the current policy
func (v *Vault) Config() (*treasury.Config, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.loadConfig()
}

// loadConfig loads the policy, failing when the treasury was never initialized
func (v *Vault) loadConfig() (*treasury.Config, error) {
	cfg, err := v.settings.Config()
	if err != nil {
		return nil, err
	}

	if cfg == nil {
		return nil, fmt.Errorf("treasury not initialized: %w", treasury.ErrInvalidOperation)
	}

	return cfg, nil
}

func validateConfig(cfg *treasury.Config) error {
	if cfg == nil {
		return fmt.Errorf("missing config: %w", treasury.ErrInvalidOperation)
	}

	if cfg.Threshold < 1 {
		return fmt.Errorf("threshold must be at least 1: %w", treasury.ErrInvalidOperation)
	}

	if cfg.TimelockDelay < 0 {
		return fmt.Errorf("negative timelock delay: %w", treasury.ErrInvalidOperation)
	}

	if negative(cfg.TimelockThreshold) || negative(cfg.DailyLimit) || negative(cfg.WeeklyLimit) {
		return fmt.Errorf("negative amount in config: %w", treasury.ErrInvalidOperation)
	}

	return nil
}
