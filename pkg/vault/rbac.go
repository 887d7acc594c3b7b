package vault

import (
	"fmt"

	"github.com/commonsfund/treasury/pkg/treasury"
)

// AssignRole sets the role of a signer, admin only. Reassigning the same role
// is a no-op that still emits, so the audit trail stays complete. Demoting the
// last admin fails: the signer set must hold at least one admin at all times.
func (v *Vault) AssignRole(actor, target string, role treasury.Role) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := v.loadConfig(); err != nil {
		return err
	}

	actorRole, err := v.settings.Role(actor)
	if err != nil {
		return err
	}

	if !actorRole.CanManageSigners() {
		return fmt.Errorf("signer management is admin only: %w", treasury.ErrUnauthorized)
	}

	if role != treasury.RoleAdmin && role != treasury.RoleTreasurer && role != treasury.RoleMember {
		return fmt.Errorf("unknown role %q: %w", role, treasury.ErrInvalidOperation)
	}

	prev, err := v.settings.Role(target)
	if err != nil {
		return err
	}

	if prev == treasury.RoleAdmin && role != treasury.RoleAdmin {
		if err := v.requireAnotherAdmin(); err != nil {
			return err
		}
	}

	if err := v.settings.SetRole(target, role); err != nil {
		return err
	}

	name := treasury.EventRoleAssigned
	if prev == treasury.RoleNone {
		name = treasury.EventSignerAdded
	}

	return v.emitter.Emit(treasury.NewEvent(name, actor, target, string(role)))
}

// RevokeRole removes a signer from the set entirely, admin only
func (v *Vault) RevokeRole(actor, target string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := v.loadConfig(); err != nil {
		return err
	}

	actorRole, err := v.settings.Role(actor)
	if err != nil {
		return err
	}

	if !actorRole.CanManageSigners() {
		return fmt.Errorf("signer management is admin only: %w", treasury.ErrUnauthorized)
	}

	prev, err := v.settings.Role(target)
	if err != nil {
		return err
	}

	if prev == treasury.RoleNone {
		return fmt.Errorf("signer %s: %w", target, treasury.ErrNotFound)
	}

	if prev == treasury.RoleAdmin {
		if err := v.requireAnotherAdmin(); err != nil {
			return err
		}
	}

	if err := v.settings.RemoveRole(target); err != nil {
		return err
	}

	return v.emitter.Emit(treasury.NewEvent(treasury.EventSignerRemoved, actor, target, string(prev)))
}

// Signers returns the full signer set with roles
func (v *Vault) Signers() ([]*treasury.Signer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.settings.Signers()
}

func (v *Vault) requireAnotherAdmin() error {
	admins, err := v.settings.CountRole(treasury.RoleAdmin)
	if err != nil {
		return err
	}

	if admins <= 1 {
		return fmt.Errorf("cannot remove the last admin: %w", treasury.ErrInvalidOperation)
	}

	return nil
}
