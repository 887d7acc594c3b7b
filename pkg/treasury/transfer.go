package treasury

import (
	"math/big"
	"time"
)

type TransferOrigin string

const (
	TransferOriginProposal  TransferOrigin = "proposal"
	TransferOriginRecurring TransferOrigin = "recurring"
)

// Transfer is an authorized release of funds recorded on the internal ledger.
// Ref is unique per release and doubles as the transaction reference in
// payment history entries.
type Transfer struct {
	Ref       string         `json:"ref"`
	Origin    TransferOrigin `json:"origin"`
	OriginID  int64          `json:"origin_id"`
	Asset     string         `json:"asset"`
	To        string         `json:"to"`
	Amount    *big.Int       `json:"amount"`
	Memo      string         `json:"memo"`
	CreatedAt time.Time      `json:"created_at"`
}
