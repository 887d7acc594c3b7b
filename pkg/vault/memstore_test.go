package vault

import (
	"math/big"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/commonsfund/treasury/pkg/treasury"
)

// in-memory stores, used to exercise the vault without a database

type memSettings struct {
	config *treasury.Config
	roles  map[string]treasury.Role
}

func newMemSettings() *memSettings {
	return &memSettings{
		roles: map[string]treasury.Role{},
	}
}

func (s *memSettings) Config() (*treasury.Config, error) {
	return s.config, nil
}

func (s *memSettings) SetConfig(cfg *treasury.Config) error {
	s.config = cfg
	return nil
}

func (s *memSettings) Role(addr string) (treasury.Role, error) {
	return s.roles[strings.ToLower(addr)], nil
}

func (s *memSettings) SetRole(addr string, role treasury.Role) error {
	s.roles[strings.ToLower(addr)] = role
	return nil
}

func (s *memSettings) RemoveRole(addr string) error {
	delete(s.roles, strings.ToLower(addr))
	return nil
}

func (s *memSettings) CountRole(role treasury.Role) (int, error) {
	count := 0
	for _, r := range s.roles {
		if r == role {
			count++
		}
	}
	return count, nil
}

func (s *memSettings) CountSigners() (int, error) {
	return len(s.roles), nil
}

func (s *memSettings) Signers() ([]*treasury.Signer, error) {
	signers := []*treasury.Signer{}
	for addr, role := range s.roles {
		signers = append(signers, &treasury.Signer{Address: addr, Role: role})
	}

	sort.Slice(signers, func(i, j int) bool {
		return signers[i].Address < signers[j].Address
	})

	return signers, nil
}

type memProposals struct {
	nextID    int64
	proposals map[int64]*treasury.Proposal
	ledger    *memLedger
}

func newMemProposals(l *memLedger) *memProposals {
	return &memProposals{
		proposals: map[int64]*treasury.Proposal{},
		ledger:    l,
	}
}

func (s *memProposals) AddProposal(p *treasury.Proposal) (int64, error) {
	s.nextID++
	cp := *p
	cp.ID = s.nextID
	s.proposals[cp.ID] = &cp
	return cp.ID, nil
}

func (s *memProposals) Proposal(id int64) (*treasury.Proposal, error) {
	p, ok := s.proposals[id]
	if !ok {
		return nil, treasury.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memProposals) UpdateProposal(p *treasury.Proposal) error {
	if _, ok := s.proposals[p.ID]; !ok {
		return treasury.ErrNotFound
	}
	cp := *p
	s.proposals[p.ID] = &cp
	return nil
}

func (s *memProposals) SettleProposal(p *treasury.Proposal, t *treasury.Transfer) error {
	if err := s.ledger.Transfer(t); err != nil {
		return err
	}
	return s.UpdateProposal(p)
}

func (s *memProposals) Proposals(limit, offset int) ([]*treasury.Proposal, error) {
	out := []*treasury.Proposal{}
	for id := s.nextID - int64(offset); id > 0 && len(out) < limit; id-- {
		if p, ok := s.proposals[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memPayments struct {
	nextID   int64
	payments map[int64]*treasury.RecurringPayment
	history  []*treasury.PaymentHistoryEntry
	ledger   *memLedger
}

func newMemPayments(l *memLedger) *memPayments {
	return &memPayments{
		payments: map[int64]*treasury.RecurringPayment{},
		ledger:   l,
	}
}

func (s *memPayments) AddPayment(p *treasury.RecurringPayment) (int64, error) {
	s.nextID++
	cp := *p
	cp.ID = s.nextID
	s.payments[cp.ID] = &cp
	return cp.ID, nil
}

func (s *memPayments) Payment(id int64) (*treasury.RecurringPayment, error) {
	p, ok := s.payments[id]
	if !ok {
		return nil, treasury.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memPayments) UpdatePayment(p *treasury.RecurringPayment) error {
	if _, ok := s.payments[p.ID]; !ok {
		return treasury.ErrNotFound
	}
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

func (s *memPayments) Payments(limit, offset int) ([]*treasury.RecurringPayment, error) {
	out := []*treasury.RecurringPayment{}
	for id := s.nextID - int64(offset); id > 0 && len(out) < limit; id-- {
		if p, ok := s.payments[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memPayments) DuePayments(now time.Time) ([]int64, error) {
	ids := []int64{}
	for id, p := range s.payments {
		if p.Status == treasury.PaymentStatusActive && !now.Before(p.NextPaymentTime) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *memPayments) AddHistoryEntry(e *treasury.PaymentHistoryEntry) error {
	ce := *e
	ce.ID = int64(len(s.history) + 1)
	s.history = append(s.history, &ce)
	return nil
}

func (s *memPayments) SettlePayment(p *treasury.RecurringPayment, e *treasury.PaymentHistoryEntry, t *treasury.Transfer) error {
	if err := s.ledger.Transfer(t); err != nil {
		return err
	}
	if err := s.UpdatePayment(p); err != nil {
		return err
	}
	return s.AddHistoryEntry(e)
}

func (s *memPayments) PaymentHistory(paymentID int64, limit, offset int) ([]*treasury.PaymentHistoryEntry, error) {
	out := []*treasury.PaymentHistoryEntry{}
	for i := len(s.history) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		if s.history[i].PaymentID == paymentID {
			ce := *s.history[i]
			out = append(out, &ce)
		}
	}
	return out, nil
}

type memWindows struct {
	windows map[treasury.WindowKind]*treasury.SpendingWindow
}

func newMemWindows() *memWindows {
	return &memWindows{
		windows: map[treasury.WindowKind]*treasury.SpendingWindow{},
	}
}

func (s *memWindows) Window(kind treasury.WindowKind) (*treasury.SpendingWindow, error) {
	w, ok := s.windows[kind]
	if !ok {
		return nil, nil
	}
	cw := *w
	return &cw, nil
}

func (s *memWindows) SetWindows(ws ...*treasury.SpendingWindow) error {
	for _, w := range ws {
		cw := *w
		s.windows[w.Kind] = &cw
	}
	return nil
}

type memEmitter struct {
	events []*treasury.Event
}

func (e *memEmitter) Emit(ev *treasury.Event) error {
	ev.ID = int64(len(e.events) + 1)
	e.events = append(e.events, ev)
	return nil
}

func (e *memEmitter) last() *treasury.Event {
	if len(e.events) == 0 {
		return nil
	}
	return e.events[len(e.events)-1]
}

type memLedger struct {
	transfers []*treasury.Transfer
	fail      error
}

func (l *memLedger) Transfer(t *treasury.Transfer) error {
	if l.fail != nil {
		return l.fail
	}
	l.transfers = append(l.transfers, t)
	return nil
}

// testVault bundles a vault with its fakes and a manual clock
type testVault struct {
	*Vault

	settings  *memSettings
	proposals *memProposals
	payments  *memPayments
	windows   *memWindows
	emitter   *memEmitter
	ledger    *memLedger

	clock time.Time
}

const (
	admin      = "0x1000000000000000000000000000000000000001"
	treasurer  = "0x2000000000000000000000000000000000000002"
	treasurer2 = "0x3000000000000000000000000000000000000003"
	member     = "0x4000000000000000000000000000000000000004"
	outsider   = "0x5000000000000000000000000000000000000005"
	recipient  = "0x6000000000000000000000000000000000000006"
)

func newTestVault(t *testing.T, cfg *treasury.Config) *testVault {
	t.Helper()

	ledger := &memLedger{}

	tv := &testVault{
		settings:  newMemSettings(),
		proposals: newMemProposals(ledger),
		payments:  newMemPayments(ledger),
		windows:   newMemWindows(),
		emitter:   &memEmitter{},
		ledger:    ledger,
		clock:     time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
	}

	tv.Vault = New(tv.settings, tv.proposals, tv.payments, tv.windows, tv.emitter)
	tv.SetClock(func() time.Time { return tv.clock })

	if cfg == nil {
		cfg = &treasury.Config{Threshold: 2}
	}

	if err := tv.Initialize(admin, cfg); err != nil {
		t.Fatal(err)
	}

	if err := tv.AssignRole(admin, treasurer, treasury.RoleTreasurer); err != nil {
		t.Fatal(err)
	}

	if err := tv.AssignRole(admin, treasurer2, treasury.RoleTreasurer); err != nil {
		t.Fatal(err)
	}

	if err := tv.AssignRole(admin, member, treasury.RoleMember); err != nil {
		t.Fatal(err)
	}

	return tv
}

func (tv *testVault) advance(d time.Duration) {
	tv.clock = tv.clock.Add(d)
}

func amount(n int64) *big.Int {
	return big.NewInt(n)
}
