package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordType classifies a transaction record. The amount is always positive;
// the direction of the balance change is implied by the type.
type RecordType string

const (
	RecordDeposit     RecordType = "DEPOSIT"
	RecordWithdrawal  RecordType = "WITHDRAWAL"
	RecordTransferOut RecordType = "TRANSFER_OUT"
	RecordTransferIn  RecordType = "TRANSFER_IN"
)

// TransactionRecord is one immutable entry in the audit trail.
// Records are append-only and ordered by ID; a record exists if and only if
// the balance change it documents was committed.
type TransactionRecord struct {
	ID         int64           `json:"id"`                    // monotonically increasing, store-assigned
	AccountID  int64           `json:"account_id"`            // account whose balance changed
	Type       RecordType      `json:"type"`                  // DEPOSIT, WITHDRAWAL, TRANSFER_OUT, TRANSFER_IN
	Amount     decimal.Decimal `json:"amount"`                // always > 0
	TransferID string          `json:"transfer_id,omitempty"` // links the OUT/IN pair of one transfer
	Timestamp  time.Time       `json:"timestamp"`             // assigned when the record is written
}
