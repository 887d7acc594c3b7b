package treasury

import (
	"errors"
	"time"
)

type Role string

const (
	// RoleNone is the implicit role of any identity not in the signer set.
	RoleNone      Role = ""
	RoleMember    Role = "member"
	RoleTreasurer Role = "treasurer"
	RoleAdmin     Role = "admin"
)

func RoleFromString(s string) (Role, error) {
	switch s {
	case "member":
		return RoleMember, nil
	case "treasurer":
		return RoleTreasurer, nil
	case "admin":
		return RoleAdmin, nil
	}

	return RoleNone, errors.New("unknown role: " + s)
}

// CanManageSigners reports whether the role may mutate the signer set and config
func (r Role) CanManageSigners() bool {
	return r == RoleAdmin
}

// CanPropose reports whether the role may create proposals and schedule payments
func (r Role) CanPropose() bool {
	return r == RoleAdmin || r == RoleTreasurer
}

// CanApprove reports whether the role may approve pending proposals
func (r Role) CanApprove() bool {
	return r == RoleAdmin || r == RoleTreasurer
}

// CanExecute reports whether the role may release funds for a ready proposal
func (r Role) CanExecute() bool {
	return r == RoleAdmin || r == RoleTreasurer
}

type Signer struct {
	Address   string    `json:"address"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
