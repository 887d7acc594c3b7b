package treasury

import (
	"errors"
	"math/big"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusActive    PaymentStatus = "active"
	PaymentStatusPaused    PaymentStatus = "paused"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

func PaymentStatusFromString(s string) (PaymentStatus, error) {
	switch s {
	case "active":
		return PaymentStatusActive, nil
	case "paused":
		return PaymentStatusPaused, nil
	case "cancelled":
		return PaymentStatusCancelled, nil
	}

	return "", errors.New("unknown payment status: " + s)
}

// RecurringPayment is a pre-authorized interval transfer. There is no approval
// quorum at execution time: authorization was granted once, by the creator's
// role, when the payment was scheduled. Interval is in seconds.
type RecurringPayment struct {
	ID              int64         `json:"id"`
	Creator         string        `json:"creator"`
	Recipient       string        `json:"recipient"`
	Asset           string        `json:"asset"`
	Amount          *big.Int      `json:"amount"`
	Memo            string        `json:"memo"`
	Interval        int64         `json:"interval"`
	NextPaymentTime time.Time     `json:"next_payment_time"`
	TotalPayments   int64         `json:"total_payments"`
	Status          PaymentStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
}

type PaymentHistoryEntry struct {
	ID         int64     `json:"id"`
	PaymentID  int64     `json:"payment_id"`
	ExecutedAt time.Time `json:"executed_at"`
	TxRef      string    `json:"tx_ref"`
	Amount     *big.Int  `json:"amount"`
	Success    bool      `json:"success"`
}
