package vault

import (
	"time"

	"github.com/commonsfund/treasury/pkg/treasury"
)

// Storage is partitioned into three retention tiers. SettingsStore is the
// durable-small tier: it is assumed present on every call. ProposalStore and
// PaymentStore form the durable-large tier: entries persist indefinitely so
// the audit trail survives; terminal proposals are never deleted. WindowStore
// is the ephemeral tier: records may be evicted once their validity period
// elapses, because a missing window reads as consumed zero.

type SettingsStore interface {
	Config() (*treasury.Config, error)
	SetConfig(cfg *treasury.Config) error

	Role(addr string) (treasury.Role, error)
	SetRole(addr string, role treasury.Role) error
	RemoveRole(addr string) error
	CountRole(role treasury.Role) (int, error)
	CountSigners() (int, error)
	Signers() ([]*treasury.Signer, error)
}

type ProposalStore interface {
	AddProposal(p *treasury.Proposal) (int64, error)
	Proposal(id int64) (*treasury.Proposal, error)
	UpdateProposal(p *treasury.Proposal) error
	Proposals(limit, offset int) ([]*treasury.Proposal, error)

	// SettleProposal stores the terminal proposal update and its ledger
	// transfer in one atomic write: a release is either fully recorded,
	// transfer row included, or not at all
	SettleProposal(p *treasury.Proposal, t *treasury.Transfer) error
}

type PaymentStore interface {
	AddPayment(p *treasury.RecurringPayment) (int64, error)
	Payment(id int64) (*treasury.RecurringPayment, error)
	UpdatePayment(p *treasury.RecurringPayment) error
	Payments(limit, offset int) ([]*treasury.RecurringPayment, error)
	DuePayments(now time.Time) ([]int64, error)

	AddHistoryEntry(e *treasury.PaymentHistoryEntry) error
	PaymentHistory(paymentID int64, limit, offset int) ([]*treasury.PaymentHistoryEntry, error)

	// SettlePayment stores the advanced schedule, the execution record and
	// the ledger transfer in one atomic write
	SettlePayment(p *treasury.RecurringPayment, e *treasury.PaymentHistoryEntry, t *treasury.Transfer) error
}

type WindowStore interface {
	// Window returns nil without error when the record is absent or evicted
	Window(kind treasury.WindowKind) (*treasury.SpendingWindow, error)
	// SetWindows persists all given windows in one atomic write
	SetWindows(ws ...*treasury.SpendingWindow) error
}

type Emitter interface {
	Emit(ev *treasury.Event) error
}
