package vault

import (
	"fmt"
	"math/big"
	"time"

	"github.com/commonsfund/treasury/pkg/treasury"
	"github.com/google/uuid"
)

// ProposalExpiry is the fixed horizon after which an unexecuted proposal can
// only be observed, never approved or executed.
const ProposalExpiry = 7 * 24 * time.Hour

// Propose creates a transfer proposal in the pending state. The proposer is
// recorded as the first approval, so a threshold of N needs N-1 further
// signers.
func (v *Vault) Propose(actor, recipient, asset string, amount *big.Int, memo string) (*treasury.Proposal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := v.loadConfig(); err != nil {
		return nil, err
	}

	role, err := v.settings.Role(actor)
	if err != nil {
		return nil, err
	}

	if !role.CanPropose() {
		return nil, fmt.Errorf("proposing requires treasurer or admin: %w", treasury.ErrUnauthorized)
	}

	if !treasury.IsValidRecipient(recipient) {
		return nil, fmt.Errorf("bad recipient %q: %w", recipient, treasury.ErrInvalidOperation)
	}

	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", treasury.ErrInvalidOperation)
	}

	now := v.now()

	p := &treasury.Proposal{
		Proposer:  actor,
		Recipient: recipient,
		Asset:     asset,
		Amount:    amount,
		Memo:      memo,
		Approvals: treasury.Approvals{actor},
		State:     treasury.ProposalStatePending,
		CreatedAt: now,
	}

	id, err := v.proposals.AddProposal(p)
	if err != nil {
		return nil, err
	}

	p.ID = id

	err = v.emitter.Emit(treasury.NewEvent(treasury.EventProposalCreated, actor, id, recipient, asset, amount.String()))
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Approve adds the caller to the proposal's approval set. The approval that
// reaches the threshold advances the proposal in the same call: into the
// timelock when the amount requires one, straight to ready otherwise.
func (v *Vault) Approve(actor string, id int64) (*treasury.Proposal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	cfg, err := v.loadConfig()
	if err != nil {
		return nil, err
	}

	role, err := v.settings.Role(actor)
	if err != nil {
		return nil, err
	}

	if !role.CanApprove() {
		return nil, fmt.Errorf("approving requires treasurer or admin: %w", treasury.ErrUnauthorized)
	}

	p, err := v.proposals.Proposal(id)
	if err != nil {
		return nil, err
	}

	now := v.now()

	if st := effectiveState(p, cfg, now); st != treasury.ProposalStatePending {
		return nil, fmt.Errorf("proposal %d is %s: %w", id, st, treasury.ErrInvalidState)
	}

	if p.Approvals.Contains(actor) {
		return nil, fmt.Errorf("signer %s: %w", actor, treasury.ErrAlreadyApproved)
	}

	p.Approvals = append(p.Approvals, actor)

	name := treasury.EventProposalApproved
	if len(p.Approvals) >= cfg.Threshold {
		// this approval crosses the threshold
		name = treasury.EventProposalReady

		if unlock := requiredUnlock(cfg, p.Amount, now); !unlock.IsZero() {
			p.State = treasury.ProposalStateTimelockActive
			p.UnlockAt = unlock
		} else {
			p.State = treasury.ProposalStateReady
		}
	}

	if err := v.proposals.UpdateProposal(p); err != nil {
		return nil, err
	}

	err = v.emitter.Emit(treasury.NewEvent(name, actor, id, len(p.Approvals), cfg.Threshold))
	if err != nil {
		return nil, err
	}

	v.applyEffectiveState(p, cfg, now)

	return p, nil
}

// Reject terminates a proposal that has not released funds yet. Only the
// proposer or an admin may reject.
func (v *Vault) Reject(actor string, id int64) (*treasury.Proposal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	cfg, err := v.loadConfig()
	if err != nil {
		return nil, err
	}

	role, err := v.settings.Role(actor)
	if err != nil {
		return nil, err
	}

	p, err := v.proposals.Proposal(id)
	if err != nil {
		return nil, err
	}

	if !treasury.IsSameAddress(actor, p.Proposer) && role != treasury.RoleAdmin {
		return nil, fmt.Errorf("rejecting requires the proposer or an admin: %w", treasury.ErrUnauthorized)
	}

	now := v.now()

	switch effectiveState(p, cfg, now) {
	case treasury.ProposalStatePending, treasury.ProposalStateTimelockActive:
	default:
		return nil, fmt.Errorf("proposal %d not rejectable: %w", id, treasury.ErrInvalidState)
	}

	p.State = treasury.ProposalStateRejected

	if err := v.proposals.UpdateProposal(p); err != nil {
		return nil, err
	}

	err = v.emitter.Emit(treasury.NewEvent(treasury.EventProposalRejected, actor, id))
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Execute releases the funds of a ready proposal. A proposal still inside its
// timelock fails with ErrTimelockNotExpired; a proposal that would breach a
// spending cap fails with ErrLimitExceeded and stays ready, retryable once a
// new window opens. Execution is terminal: repeating it fails rather than
// double-spending.
func (v *Vault) Execute(actor string, id int64) (*treasury.Proposal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	cfg, err := v.loadConfig()
	if err != nil {
		return nil, err
	}

	role, err := v.settings.Role(actor)
	if err != nil {
		return nil, err
	}

	if !role.CanExecute() {
		return nil, fmt.Errorf("executing requires treasurer or admin: %w", treasury.ErrUnauthorized)
	}

	p, err := v.proposals.Proposal(id)
	if err != nil {
		return nil, err
	}

	now := v.now()

	switch st := effectiveState(p, cfg, now); st {
	case treasury.ProposalStateReady:
	case treasury.ProposalStateTimelockActive:
		return nil, fmt.Errorf("proposal %d locked until %s: %w", id, p.UnlockAt.Format(time.RFC3339), treasury.ErrTimelockNotExpired)
	default:
		return nil, fmt.Errorf("proposal %d is %s: %w", id, st, treasury.ErrInvalidState)
	}

	// a threshold lowered after the approvals came in can surface a proposal
	// as ready without any approval having started its delay; start it now
	if p.UnlockAt.IsZero() {
		if unlock := requiredUnlock(cfg, p.Amount, now); !unlock.IsZero() {
			p.State = treasury.ProposalStateTimelockActive
			p.UnlockAt = unlock

			if err := v.proposals.UpdateProposal(p); err != nil {
				return nil, err
			}

			return nil, fmt.Errorf("proposal %d locked until %s: %w", id, p.UnlockAt.Format(time.RFC3339), treasury.ErrTimelockNotExpired)
		}
	}

	ws, err := v.reserveBudget(cfg, p.Amount, now)
	if err != nil {
		return nil, err
	}

	ref := uuid.NewString()

	p.State = treasury.ProposalStateExecuted
	p.ExecutedAt = now
	p.TxRef = ref

	err = v.proposals.SettleProposal(p, &treasury.Transfer{
		Ref:       ref,
		Origin:    treasury.TransferOriginProposal,
		OriginID:  p.ID,
		Asset:     p.Asset,
		To:        p.Recipient,
		Amount:    p.Amount,
		Memo:      p.Memo,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := v.windows.SetWindows(ws...); err != nil {
		return nil, err
	}

	err = v.emitter.Emit(treasury.NewEvent(treasury.EventProposalExecuted, actor, id, p.Recipient, p.Amount.String(), ref))
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Proposal returns one proposal with its effective state applied
func (v *Vault) Proposal(id int64) (*treasury.Proposal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	cfg, err := v.loadConfig()
	if err != nil {
		return nil, err
	}

	p, err := v.proposals.Proposal(id)
	if err != nil {
		return nil, err
	}

	v.applyEffectiveState(p, cfg, v.now())

	return p, nil
}

// Proposals returns a page of proposals, newest first, with effective states applied
func (v *Vault) Proposals(limit, offset int) ([]*treasury.Proposal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	cfg, err := v.loadConfig()
	if err != nil {
		return nil, err
	}

	ps, err := v.proposals.Proposals(limit, offset)
	if err != nil {
		return nil, err
	}

	now := v.now()
	for _, p := range ps {
		v.applyEffectiveState(p, cfg, now)
	}

	return ps, nil
}

// effectiveState derives the state a proposal is observed in at the given
// time. Time-driven transitions (timelock expiry, proposal expiry) are never
// written eagerly; there is no background scheduler, so they are computed on
// every access instead.
func effectiveState(p *treasury.Proposal, cfg *treasury.Config, now time.Time) treasury.ProposalState {
	if p.State.Terminal() {
		return p.State
	}

	if now.After(p.CreatedAt.Add(ProposalExpiry)) {
		return treasury.ProposalStateExpired
	}

	if len(p.Approvals) >= cfg.Threshold {
		if !p.UnlockAt.IsZero() && !isUnlocked(p.UnlockAt, now) {
			return treasury.ProposalStateTimelockActive
		}

		return treasury.ProposalStateReady
	}

	return treasury.ProposalStatePending
}

func (v *Vault) applyEffectiveState(p *treasury.Proposal, cfg *treasury.Config, now time.Time) {
	p.State = effectiveState(p, cfg, now)
}
