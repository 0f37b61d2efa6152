package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/bankvoiceai/platform/svc/subscription"
)

// Status tracks a payment record through its lifecycle. Records are created
// confirmed (only verified transfers are persisted) and are immutable except
// for the transition to refunded.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
	StatusExpired   Status = "expired"
)

// Record is one verified on-chain payment. AmountFET is the exact decimal
// transfer amount as a string; arithmetic happens in integer smallest units
// before persistence, never on this field.
type Record struct {
	ID          uuid.UUID           `json:"id"`
	TxID        string              `json:"tx_id"`
	FromAddress string              `json:"from_address"`
	ToAddress   string              `json:"to_address"`
	AmountFET   string              `json:"amount_fet"`
	Memo        string              `json:"memo"`
	BlockHeight int64               `json:"block_height"`
	Timestamp   time.Time           `json:"timestamp"` // on-chain block time
	TenantID    string              `json:"tenant_id"`
	Plan        subscription.PlanID `json:"plan"`
	Status      Status              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
}
