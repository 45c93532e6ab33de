package models

import "github.com/shopspring/decimal"

// Account is a custodial account holding a balance.
// The balance is never mutated directly; every change goes through the
// ledger engine so it stays paired with an audit record.
type Account struct {
	ID      int64           `json:"id"`      // store-assigned, unique
	Name    string          `json:"name"`    // display name
	Balance decimal.Decimal `json:"balance"` // >= 0 at every committed state
}
