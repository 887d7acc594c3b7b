package treasury

import (
	"fmt"
	"time"
)

type Message struct {
	ID         string
	CreatedAt  time.Time
	RetryCount int
	Message    any
}

type PaymentMessage struct {
	PaymentID int64
	Due       time.Time
}

func newMessage(id string, message any) *Message {
	return &Message{
		ID:         id,
		CreatedAt:  time.Now(),
		RetryCount: 0,
		Message:    message,
	}
}

func NewPaymentMessage(paymentID int64, due time.Time) *Message {
	pm := PaymentMessage{
		PaymentID: paymentID,
		Due:       due,
	}
	return newMessage(fmt.Sprintf("payment_%d_%d", paymentID, due.Unix()), pm)
}
