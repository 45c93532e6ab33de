package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bankcore/ledger-engine/internal/models"
)

// TransactionCompleted is published after a balance mutation has been
// durably committed. It is informational; consumers must not treat it as
// the source of truth for balances.
type TransactionCompleted struct {
	Type        models.RecordType `json:"type"`
	AccountID   int64             `json:"account_id"`
	ToAccountID int64             `json:"to_account_id,omitempty"` // set for transfers
	TransferID  string            `json:"transfer_id,omitempty"`
	Amount      decimal.Decimal   `json:"amount"`
	OccurredAt  time.Time         `json:"occurred_at"`
}
