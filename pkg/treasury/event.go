package treasury

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type EventName string

const (
	EventInitialized      EventName = "initialized"
	EventConfigUpdated    EventName = "config_updated"
	EventSignerAdded      EventName = "signer_added"
	EventSignerRemoved    EventName = "signer_removed"
	EventRoleAssigned     EventName = "role_assigned"
	EventProposalCreated  EventName = "proposal_created"
	EventProposalApproved EventName = "proposal_approved"
	EventProposalReady    EventName = "proposal_ready"
	EventProposalRejected EventName = "proposal_rejected"
	EventProposalExecuted EventName = "proposal_executed"
	EventPaymentScheduled EventName = "payment_scheduled"
	EventPaymentPaused    EventName = "payment_paused"
	EventPaymentResumed   EventName = "payment_resumed"
	EventPaymentCancelled EventName = "payment_cancelled"
	EventPaymentExecuted  EventName = "payment_executed"
)

// EventPayload is an ordered tuple whose first element is always the acting identity
type EventPayload []any

// EventPayload implements the sql.Scanner interface
func (p *EventPayload) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("invalid type for EventPayload")
		}
		b = []byte(s)
	}

	if len(b) == 0 {
		return nil
	}

	return json.Unmarshal(b, p)
}

// EventPayload implements the driver.Valuer interface
func (p EventPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Event is one entry of the append-only notification log. IDs are assigned by
// the log and increase monotonically; every mutating entry point appends
// exactly one event.
type Event struct {
	ID        int64        `json:"id"`
	Name      EventName    `json:"name"`
	Actor     string       `json:"actor"`
	Payload   EventPayload `json:"payload"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewEvent builds an event whose payload starts with the acting identity
func NewEvent(name EventName, actor string, fields ...any) *Event {
	return &Event{
		Name:    name,
		Actor:   actor,
		Payload: append(EventPayload{actor}, fields...),
	}
}
