package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bankcore/ledger-engine/internal/interfaces"
	"github.com/bankcore/ledger-engine/internal/ledger"
	"github.com/bankcore/ledger-engine/internal/models"
)

const defaultHistoryLimit = 10

// Store is an in-memory implementation of interfaces.LedgerStore, used in
// tests and when no database is configured. A single mutex is held for the
// whole of each atomic unit, so scopes are trivially serializable; mutations
// are staged in the scope and applied only when the unit succeeds.
type Store struct {
	mu       sync.Mutex
	nextAcct int64
	nextRec  int64
	accounts map[int64]models.Account
	records  []models.TransactionRecord
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[int64]models.Account),
	}
}

// Atomic runs fn with the store locked. Staged mutations are applied only
// if fn returns nil; on error nothing is observable afterwards.
func (s *Store) Atomic(ctx context.Context, fn func(interfaces.TxScope) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	scope := &txScope{store: s, deltas: make(map[int64]decimal.Decimal)}
	if err := fn(scope); err != nil {
		return err
	}
	scope.commit()
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return models.Account{}, ledger.ErrAccountNotFound
	}
	return acc, nil
}

func (s *Store) History(ctx context.Context, accountID int64, limit int) ([]models.TransactionRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// records are appended in id order, so walk backwards for newest first
	var out []models.TransactionRecord
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if s.records[i].AccountID == accountID {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

// txScope stages mutations against the locked store. ids for created
// accounts are tentative until commit; a failed scope consumes none.
type txScope struct {
	store    *Store
	created  []models.Account
	deltas   map[int64]decimal.Decimal
	appended []models.TransactionRecord
}

func (t *txScope) CreateAccount(ctx context.Context, name string, balance decimal.Decimal) (int64, error) {
	id := t.store.nextAcct + int64(len(t.created)) + 1
	t.created = append(t.created, models.Account{ID: id, Name: name, Balance: balance})
	return id, nil
}

func (t *txScope) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	for _, acc := range t.created {
		if acc.ID == id {
			acc.Balance = acc.Balance.Add(t.deltas[id])
			return acc, nil
		}
	}
	acc, ok := t.store.accounts[id]
	if !ok {
		return models.Account{}, ledger.ErrAccountNotFound
	}
	acc.Balance = acc.Balance.Add(t.deltas[id])
	return acc, nil
}

func (t *txScope) ApplyDelta(ctx context.Context, id int64, delta decimal.Decimal) error {
	if _, err := t.GetAccount(ctx, id); err != nil {
		return err
	}
	t.deltas[id] = t.deltas[id].Add(delta)
	return nil
}

func (t *txScope) Append(ctx context.Context, rec models.TransactionRecord) error {
	t.appended = append(t.appended, rec)
	return nil
}

// commit applies the staged state. The store mutex is already held.
func (t *txScope) commit() {
	s := t.store
	for _, acc := range t.created {
		s.accounts[acc.ID] = acc
		s.nextAcct = acc.ID
	}
	for id, delta := range t.deltas {
		acc := s.accounts[id]
		acc.Balance = acc.Balance.Add(delta)
		s.accounts[id] = acc
	}
	now := time.Now().UTC()
	for _, rec := range t.appended {
		s.nextRec++
		rec.ID = s.nextRec
		rec.Timestamp = now
		s.records = append(s.records, rec)
	}
}

// Compile-time check: Store implements the LedgerStore interface.
var _ interfaces.LedgerStore = (*Store)(nil)
