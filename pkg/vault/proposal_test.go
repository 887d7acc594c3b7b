package vault

import (
	"errors"
	"testing"
	"time"

	"github.com/commonsfund/treasury/pkg/treasury"
)

func TestPropose(t *testing.T) {
	t.Run("treasurer or admin only", func(t *testing.T) {
		tv := newTestVault(t, nil)

		for _, actor := range []string{member, outsider} {
			_, err := tv.Propose(actor, recipient, "usdc", amount(100), "")
			if !errors.Is(err, treasury.ErrUnauthorized) {
				t.Fatalf("%s: expected ErrUnauthorized, got %v", actor, err)
			}
		}
	})

	t.Run("rejects bad recipients", func(t *testing.T) {
		tv := newTestVault(t, nil)

		for _, bad := range []string{"", "not-an-address", treasury.ZeroAddress} {
			_, err := tv.Propose(treasurer, bad, "usdc", amount(100), "")
			if !errors.Is(err, treasury.ErrInvalidOperation) {
				t.Fatalf("%q: expected ErrInvalidOperation, got %v", bad, err)
			}
		}
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		tv := newTestVault(t, nil)

		for _, bad := range []int64{0, -5} {
			_, err := tv.Propose(treasurer, recipient, "usdc", amount(bad), "")
			if !errors.Is(err, treasury.ErrInvalidOperation) {
				t.Fatalf("%d: expected ErrInvalidOperation, got %v", bad, err)
			}
		}
	})

	t.Run("proposer counts as the first approval", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, err := tv.Propose(treasurer, recipient, "usdc", amount(100), "rent")
		if err != nil {
			t.Fatal(err)
		}

		if len(p.Approvals) != 1 || !p.Approvals.Contains(treasurer) {
			t.Fatalf("expected proposer in approvals, got %v", p.Approvals)
		}

		if p.State != treasury.ProposalStatePending {
			t.Fatalf("expected pending, got %s", p.State)
		}

		if ev := tv.emitter.last(); ev.Name != treasury.EventProposalCreated {
			t.Fatalf("expected proposal_created, got %s", ev.Name)
		}
	})
}

func TestApprove(t *testing.T) {
	t.Run("member cannot approve", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")

		_, err := tv.Approve(member, p.ID)
		if !errors.Is(err, treasury.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("no double approval", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")

		_, err := tv.Approve(treasurer, p.ID)
		if !errors.Is(err, treasury.ErrAlreadyApproved) {
			t.Fatalf("expected ErrAlreadyApproved, got %v", err)
		}
	})

	t.Run("below threshold stays pending", func(t *testing.T) {
		tv := newTestVault(t, &treasury.Config{Threshold: 3})

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")

		p, err := tv.Approve(treasurer2, p.ID)
		if err != nil {
			t.Fatal(err)
		}

		if p.State != treasury.ProposalStatePending {
			t.Fatalf("expected pending, got %s", p.State)
		}

		if ev := tv.emitter.last(); ev.Name != treasury.EventProposalApproved {
			t.Fatalf("expected proposal_approved, got %s", ev.Name)
		}
	})

	t.Run("crossing the threshold readies the proposal", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")

		p, err := tv.Approve(treasurer2, p.ID)
		if err != nil {
			t.Fatal(err)
		}

		if p.State != treasury.ProposalStateReady {
			t.Fatalf("expected ready, got %s", p.State)
		}

		if ev := tv.emitter.last(); ev.Name != treasury.EventProposalReady {
			t.Fatalf("expected proposal_ready, got %s", ev.Name)
		}
	})

	t.Run("cannot approve a ready proposal", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")
		tv.Approve(treasurer2, p.ID)

		_, err := tv.Approve(admin, p.ID)
		if !errors.Is(err, treasury.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("unknown proposal", func(t *testing.T) {
		tv := newTestVault(t, nil)

		_, err := tv.Approve(treasurer, 404)
		if !errors.Is(err, treasury.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestReject(t *testing.T) {
	t.Run("proposer or admin only", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")

		_, err := tv.Reject(treasurer2, p.ID)
		if !errors.Is(err, treasury.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}

		if _, err := tv.Reject(treasurer, p.ID); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("admin can reject any proposal", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")

		p, err := tv.Reject(admin, p.ID)
		if err != nil {
			t.Fatal(err)
		}

		if p.State != treasury.ProposalStateRejected {
			t.Fatalf("expected rejected, got %s", p.State)
		}
	})

	t.Run("a timelocked proposal is still rejectable", func(t *testing.T) {
		tv := newTestVault(t, &treasury.Config{
			Threshold:         2,
			TimelockThreshold: amount(50),
			TimelockDelay:     3600,
		})

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")
		p, _ = tv.Approve(treasurer2, p.ID)

		if p.State != treasury.ProposalStateTimelockActive {
			t.Fatalf("expected timelock_active, got %s", p.State)
		}

		if _, err := tv.Reject(admin, p.ID); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("terminal proposals are not rejectable", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")
		tv.Approve(treasurer2, p.ID)
		if _, err := tv.Execute(treasurer, p.ID); err != nil {
			t.Fatal(err)
		}

		_, err := tv.Reject(admin, p.ID)
		if !errors.Is(err, treasury.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})
}

func TestExecute(t *testing.T) {
	t.Run("treasurer or admin only", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")
		tv.Approve(treasurer2, p.ID)

		_, err := tv.Execute(member, p.ID)
		if !errors.Is(err, treasury.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("pending proposals are not executable", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")

		_, err := tv.Execute(treasurer, p.ID)
		if !errors.Is(err, treasury.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("releases the funds once", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "rent")
		tv.Approve(treasurer2, p.ID)

		p, err := tv.Execute(treasurer, p.ID)
		if err != nil {
			t.Fatal(err)
		}

		if p.State != treasury.ProposalStateExecuted || p.TxRef == "" || p.ExecutedAt.IsZero() {
			t.Fatalf("execution not recorded: %+v", p)
		}

		if len(tv.ledger.transfers) != 1 {
			t.Fatalf("expected 1 transfer, got %d", len(tv.ledger.transfers))
		}

		tr := tv.ledger.transfers[0]
		if tr.Origin != treasury.TransferOriginProposal || tr.OriginID != p.ID || tr.Amount.Cmp(amount(100)) != 0 {
			t.Fatalf("unexpected transfer: %+v", tr)
		}

		// a second execution must not double spend
		_, err = tv.Execute(treasurer, p.ID)
		if !errors.Is(err, treasury.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}

		if len(tv.ledger.transfers) != 1 {
			t.Fatalf("double spend: %d transfers", len(tv.ledger.transfers))
		}
	})

	t.Run("ledger failure leaves the proposal ready", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")
		tv.Approve(treasurer2, p.ID)

		tv.ledger.fail = errors.New("ledger down")

		if _, err := tv.Execute(treasurer, p.ID); err == nil {
			t.Fatal("expected error")
		}

		if len(tv.ledger.transfers) != 0 {
			t.Fatalf("expected no transfer rows, got %d", len(tv.ledger.transfers))
		}

		p, err := tv.Proposal(p.ID)
		if err != nil {
			t.Fatal(err)
		}

		if p.State != treasury.ProposalStateReady {
			t.Fatalf("expected ready, got %s", p.State)
		}

		// retryable once the ledger recovers, releasing exactly once
		tv.ledger.fail = nil

		if _, err := tv.Execute(treasurer, p.ID); err != nil {
			t.Fatal(err)
		}

		if len(tv.ledger.transfers) != 1 {
			t.Fatalf("expected 1 transfer, got %d", len(tv.ledger.transfers))
		}
	})
}

func TestTimelock(t *testing.T) {
	cfg := &treasury.Config{
		Threshold:         2,
		TimelockThreshold: amount(100),
		TimelockDelay:     3600,
	}

	t.Run("amounts at or above the threshold are delayed", func(t *testing.T) {
		tv := newTestVault(t, cfg)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")
		p, _ = tv.Approve(treasurer2, p.ID)

		if p.State != treasury.ProposalStateTimelockActive {
			t.Fatalf("expected timelock_active, got %s", p.State)
		}

		want := tv.clock.Add(time.Hour)
		if !p.UnlockAt.Equal(want) {
			t.Fatalf("expected unlock at %s, got %s", want, p.UnlockAt)
		}

		_, err := tv.Execute(treasurer, p.ID)
		if !errors.Is(err, treasury.ErrTimelockNotExpired) {
			t.Fatalf("expected ErrTimelockNotExpired, got %v", err)
		}

		// the boundary instant counts as unlocked
		tv.advance(time.Hour)

		if _, err := tv.Execute(treasurer, p.ID); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("amounts below the threshold skip the delay", func(t *testing.T) {
		tv := newTestVault(t, cfg)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(99), "")
		p, _ = tv.Approve(treasurer2, p.ID)

		if p.State != treasury.ProposalStateReady {
			t.Fatalf("expected ready, got %s", p.State)
		}
	})

	t.Run("a lowered threshold does not skip the delay", func(t *testing.T) {
		tv := newTestVault(t, &treasury.Config{
			Threshold:         3,
			TimelockThreshold: amount(100),
			TimelockDelay:     3600,
		})

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")
		if _, err := tv.Approve(treasurer2, p.ID); err != nil {
			t.Fatal(err)
		}

		// with two approvals in, the bar drops to two
		err := tv.UpdateConfig(admin, &treasury.Config{
			Threshold:         2,
			TimelockThreshold: amount(100),
			TimelockDelay:     3600,
		})
		if err != nil {
			t.Fatal(err)
		}

		_, err = tv.Execute(treasurer, p.ID)
		if !errors.Is(err, treasury.ErrTimelockNotExpired) {
			t.Fatalf("expected ErrTimelockNotExpired, got %v", err)
		}

		got, err := tv.Proposal(p.ID)
		if err != nil {
			t.Fatal(err)
		}

		if got.State != treasury.ProposalStateTimelockActive || got.UnlockAt.IsZero() {
			t.Fatalf("expected a started timelock, got %+v", got)
		}

		tv.advance(time.Hour)

		if _, err := tv.Execute(treasurer, p.ID); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("nil threshold disables the timelock", func(t *testing.T) {
		tv := newTestVault(t, &treasury.Config{Threshold: 2, TimelockDelay: 3600})

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(1_000_000), "")
		p, _ = tv.Approve(treasurer2, p.ID)

		if p.State != treasury.ProposalStateReady {
			t.Fatalf("expected ready, got %s", p.State)
		}
	})
}

func TestProposalExpiry(t *testing.T) {
	t.Run("expired proposals only observe", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")

		tv.advance(ProposalExpiry + time.Second)

		got, err := tv.Proposal(p.ID)
		if err != nil {
			t.Fatal(err)
		}

		if got.State != treasury.ProposalStateExpired {
			t.Fatalf("expected expired, got %s", got.State)
		}

		if _, err := tv.Approve(treasurer2, p.ID); !errors.Is(err, treasury.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}

		if _, err := tv.Execute(treasurer, p.ID); !errors.Is(err, treasury.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("a ready proposal expires too", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")
		tv.Approve(treasurer2, p.ID)

		tv.advance(ProposalExpiry + time.Second)

		if _, err := tv.Execute(treasurer, p.ID); !errors.Is(err, treasury.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("executed proposals never flip to expired", func(t *testing.T) {
		tv := newTestVault(t, nil)

		p, _ := tv.Propose(treasurer, recipient, "usdc", amount(100), "")
		tv.Approve(treasurer2, p.ID)
		tv.Execute(treasurer, p.ID)

		tv.advance(ProposalExpiry + time.Second)

		got, err := tv.Proposal(p.ID)
		if err != nil {
			t.Fatal(err)
		}

		if got.State != treasury.ProposalStateExecuted {
			t.Fatalf("expected executed, got %s", got.State)
		}
	})
}
