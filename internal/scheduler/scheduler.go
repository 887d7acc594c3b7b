package scheduler

import (
	"errors"
	"log"
	"time"

	"github.com/commonsfund/treasury/internal/services/db"
	"github.com/commonsfund/treasury/pkg/queue"
	"github.com/commonsfund/treasury/pkg/treasury"
	"github.com/commonsfund/treasury/pkg/vault"
)

// Dispatcher polls for due recurring payments and enqueues them for execution
type Dispatcher struct {
	db *db.DB
	q  *queue.Service

	rate time.Duration
	quit chan bool
}

func NewDispatcher(db *db.DB, q *queue.Service, rate time.Duration) *Dispatcher {
	return &Dispatcher{
		db:   db,
		q:    q,
		rate: rate,
		quit: make(chan bool),
	}
}

func (d *Dispatcher) Close() {
	d.quit <- true
}

func (d *Dispatcher) Start() error {
	ticker := time.NewTicker(d.rate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()

			ids, err := d.db.PaymentDB.DuePayments(now)
			if err != nil {
				log.Default().Println("error fetching due payments: ", err.Error())
				continue
			}

			for _, id := range ids {
				d.q.Enqueue(*treasury.NewPaymentMessage(id, now))
			}
		case <-d.quit:
			return nil
		}
	}
}

// Executor processes queued payment messages against the vault
type Executor struct {
	vault *vault.Vault
}

func NewExecutor(v *vault.Vault) *Executor {
	return &Executor{
		vault: v,
	}
}

// Process executes a due payment, anyone may trigger execution so the
// dispatcher acts as the zero address
func (e *Executor) Process(m treasury.Message) error {
	pm, ok := m.Message.(treasury.PaymentMessage)
	if !ok {
		return errors.New("invalid payment message")
	}

	_, err := e.vault.ExecutePayment(treasury.ZeroAddress, pm.PaymentID)
	if err != nil {
		// the payment can be paused, cancelled or already advanced between
		// dispatch and execution, there is nothing to retry
		if errors.Is(err, treasury.ErrNotDue) || errors.Is(err, treasury.ErrInvalidState) || errors.Is(err, treasury.ErrNotFound) {
			return nil
		}

		return err
	}

	return nil
}
