package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bankcore/ledger-engine/internal/models"
)

// LedgerStore persists accounts and their transaction records.
// Implementations must make Atomic all-or-nothing: if fn returns an error,
// no mutation performed through the scope is observable afterwards.
type LedgerStore interface {
	// Atomic runs fn inside a single atomic unit. The TxScope is only
	// valid for the duration of the call.
	Atomic(ctx context.Context, fn func(TxScope) error) error

	// GetAccount is a snapshot read. Returns ledger.ErrAccountNotFound
	// for unknown ids.
	GetAccount(ctx context.Context, id int64) (models.Account, error)

	// History returns records for the account, newest first (by record id
	// descending), at most limit entries. limit <= 0 means the default of 10.
	History(ctx context.Context, accountID int64, limit int) ([]models.TransactionRecord, error)
}

// TxScope is the mutation surface available inside one atomic unit.
type TxScope interface {
	// CreateAccount allocates a new account and returns its id.
	CreateAccount(ctx context.Context, name string, balance decimal.Decimal) (int64, error)

	// GetAccount reads an account under the scope's isolation, so the
	// balance cannot change underneath a check-then-mutate sequence.
	GetAccount(ctx context.Context, id int64) (models.Account, error)

	// ApplyDelta adds delta (positive or negative) to the account balance.
	// It performs no sufficiency validation; callers check preconditions
	// first, inside the same scope.
	ApplyDelta(ctx context.Context, id int64, delta decimal.Decimal) error

	// Append writes one immutable transaction record. The store assigns
	// the record id and timestamp at commit.
	Append(ctx context.Context, rec models.TransactionRecord) error
}
