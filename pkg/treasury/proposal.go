package treasury

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"
)

type ProposalState string

const (
	ProposalStatePending        ProposalState = "pending"
	ProposalStateTimelockActive ProposalState = "timelock_active"
	ProposalStateReady          ProposalState = "ready"
	ProposalStateExecuted       ProposalState = "executed"
	ProposalStateRejected       ProposalState = "rejected"
	ProposalStateExpired        ProposalState = "expired"
)

func ProposalStateFromString(s string) (ProposalState, error) {
	switch s {
	case "pending":
		return ProposalStatePending, nil
	case "timelock_active":
		return ProposalStateTimelockActive, nil
	case "ready":
		return ProposalStateReady, nil
	case "executed":
		return ProposalStateExecuted, nil
	case "rejected":
		return ProposalStateRejected, nil
	case "expired":
		return ProposalStateExpired, nil
	}

	return "", errors.New("unknown proposal state: " + s)
}

// Terminal reports whether the state can never change again
func (s ProposalState) Terminal() bool {
	return s == ProposalStateExecuted || s == ProposalStateRejected
}

// Approvals is the ordered set of approver addresses for a proposal
type Approvals []string

func (a Approvals) Contains(addr string) bool {
	for _, ad := range a {
		if IsSameAddress(ad, addr) {
			return true
		}
	}

	return false
}

// Approvals implements the sql.Scanner interface
func (a *Approvals) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("invalid type for Approvals")
		}
		b = []byte(s)
	}

	if len(b) == 0 {
		return nil
	}

	return json.Unmarshal(b, a)
}

// Approvals implements the driver.Valuer interface
func (a Approvals) Value() (driver.Value, error) {
	return json.Marshal(a)
}

type Proposal struct {
	ID         int64         `json:"id"`
	Proposer   string        `json:"proposer"`
	Recipient  string        `json:"recipient"`
	Asset      string        `json:"asset"`
	Amount     *big.Int      `json:"amount"`
	Memo       string        `json:"memo"`
	Approvals  Approvals     `json:"approvals"`
	State      ProposalState `json:"state"`
	CreatedAt  time.Time     `json:"created_at"`
	UnlockAt   time.Time     `json:"unlock_at,omitempty"`
	ExecutedAt time.Time     `json:"executed_at,omitempty"`
	TxRef      string        `json:"tx_ref,omitempty"`
}
