package vault

import (
	"fmt"
	"math/big"
	"time"

	"github.com/commonsfund/treasury/pkg/treasury"
	"github.com/google/uuid"
)

// SchedulePayment creates an active recurring payment. Authorization happens
// here, once: execution later needs no quorum, only the due time and the
// spending caps. Interval is in seconds and must be positive.
func (v *Vault) SchedulePayment(actor, recipient, asset string, amount *big.Int, memo string, interval int64) (*treasury.RecurringPayment, error) {
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
		return nil, fmt.Errorf("scheduling requires treasurer or admin: %w", treasury.ErrUnauthorized)
	}

	if !treasury.IsValidRecipient(recipient) {
		return nil, fmt.Errorf("bad recipient %q: %w", recipient, treasury.ErrInvalidOperation)
	}

	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", treasury.ErrInvalidOperation)
	}

	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive: %w", treasury.ErrInvalidOperation)
	}

	now := v.now()

	p := &treasury.RecurringPayment{
		Creator:         actor,
		Recipient:       recipient,
		Asset:           asset,
		Amount:          amount,
		Memo:            memo,
		Interval:        interval,
		NextPaymentTime: now.Add(time.Duration(interval) * time.Second),
		Status:          treasury.PaymentStatusActive,
		CreatedAt:       now,
	}

	id, err := v.payments.AddPayment(p)
	if err != nil {
		return nil, err
	}

	p.ID = id

	err = v.emitter.Emit(treasury.NewEvent(treasury.EventPaymentScheduled, actor, id, recipient, asset, amount.String(), interval))
	if err != nil {
		return nil, err
	}

	return p, nil
}

// PausePayment suspends an active payment, creator or admin only
func (v *Vault) PausePayment(actor string, id int64) (*treasury.RecurringPayment, error) {
	return v.setPaymentStatus(actor, id, treasury.PaymentStatusActive, treasury.PaymentStatusPaused, treasury.EventPaymentPaused)
}

// ResumePayment reactivates a paused payment, creator or admin only
func (v *Vault) ResumePayment(actor string, id int64) (*treasury.RecurringPayment, error) {
	return v.setPaymentStatus(actor, id, treasury.PaymentStatusPaused, treasury.PaymentStatusActive, treasury.EventPaymentResumed)
}

// CancelPayment terminates a payment permanently, creator or admin only
func (v *Vault) CancelPayment(actor string, id int64) (*treasury.RecurringPayment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p, err := v.ownedPayment(actor, id)
	if err != nil {
		return nil, err
	}

	if p.Status == treasury.PaymentStatusCancelled {
		return nil, fmt.Errorf("payment %d already cancelled: %w", id, treasury.ErrInvalidState)
	}

	p.Status = treasury.PaymentStatusCancelled

	if err := v.payments.UpdatePayment(p); err != nil {
		return nil, err
	}

	err = v.emitter.Emit(treasury.NewEvent(treasury.EventPaymentCancelled, actor, id))
	if err != nil {
		return nil, err
	}

	return p, nil
}

// ExecutePayment releases one due installment. Any identity may call: the
// due time gates it, and the transfer consumes the same daily and weekly
// budget as manual proposals, so automation cannot bypass the caps. The
// schedule advances by exactly one interval per successful execution (fixed
// cadence), so catching up after a gap takes repeated calls and missed
// executions never shift the cadence forward.
func (v *Vault) ExecutePayment(caller string, id int64) (*treasury.RecurringPayment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	cfg, err := v.loadConfig()
	if err != nil {
		return nil, err
	}

	p, err := v.payments.Payment(id)
	if err != nil {
		return nil, err
	}

	if p.Status != treasury.PaymentStatusActive {
		return nil, fmt.Errorf("payment %d is %s: %w", id, p.Status, treasury.ErrInvalidState)
	}

	now := v.now()

	if now.Before(p.NextPaymentTime) {
		return nil, fmt.Errorf("payment %d due at %s: %w", id, p.NextPaymentTime.Format(time.RFC3339), treasury.ErrNotDue)
	}

	ws, err := v.reserveBudget(cfg, p.Amount, now)
	if err != nil {
		return nil, err
	}

	ref := uuid.NewString()

	entry := &treasury.PaymentHistoryEntry{
		PaymentID:  p.ID,
		ExecutedAt: now,
		TxRef:      ref,
		Amount:     p.Amount,
		Success:    true,
	}

	p.TotalPayments++
	p.NextPaymentTime = p.NextPaymentTime.Add(time.Duration(p.Interval) * time.Second)

	err = v.payments.SettlePayment(p, entry, &treasury.Transfer{
		Ref:       ref,
		Origin:    treasury.TransferOriginRecurring,
		OriginID:  p.ID,
		Asset:     p.Asset,
		To:        p.Recipient,
		Amount:    p.Amount,
		Memo:      p.Memo,
		CreatedAt: now,
	})
	if err != nil {
		// record the failed attempt; the stored schedule stays put
		entry.Success = false
		if herr := v.payments.AddHistoryEntry(entry); herr != nil {
			return nil, herr
		}

		return nil, err
	}

	if err := v.windows.SetWindows(ws...); err != nil {
		return nil, err
	}

	err = v.emitter.Emit(treasury.NewEvent(treasury.EventPaymentExecuted, caller, id, p.Recipient, p.Amount.String(), ref))
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Payment returns one recurring payment
func (v *Vault) Payment(id int64) (*treasury.RecurringPayment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.payments.Payment(id)
}

// Payments returns a page of recurring payments, newest first
func (v *Vault) Payments(limit, offset int) ([]*treasury.RecurringPayment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.payments.Payments(limit, offset)
}

// PaymentHistory returns a page of execution records for one payment
func (v *Vault) PaymentHistory(id int64, limit, offset int) ([]*treasury.PaymentHistoryEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := v.payments.Payment(id); err != nil {
		return nil, err
	}

	return v.payments.PaymentHistory(id, limit, offset)
}

func (v *Vault) setPaymentStatus(actor string, id int64, from, to treasury.PaymentStatus, name treasury.EventName) (*treasury.RecurringPayment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p, err := v.ownedPayment(actor, id)
	if err != nil {
		return nil, err
	}

	if p.Status != from {
		return nil, fmt.Errorf("payment %d is %s: %w", id, p.Status, treasury.ErrInvalidState)
	}

	p.Status = to

	if err := v.payments.UpdatePayment(p); err != nil {
		return nil, err
	}

	err = v.emitter.Emit(treasury.NewEvent(name, actor, id))
	if err != nil {
		return nil, err
	}

	return p, nil
}

// ownedPayment loads a payment and checks the creator-or-admin guard
func (v *Vault) ownedPayment(actor string, id int64) (*treasury.RecurringPayment, error) {
	if _, err := v.loadConfig(); err != nil {
		return nil, err
	}

	role, err := v.settings.Role(actor)
	if err != nil {
		return nil, err
	}

	p, err := v.payments.Payment(id)
	if err != nil {
		return nil, err
	}

	if !treasury.IsSameAddress(actor, p.Creator) && role != treasury.RoleAdmin {
		return nil, fmt.Errorf("managing a payment requires its creator or an admin: %w", treasury.ErrUnauthorized)
	}

	return p, nil
}
