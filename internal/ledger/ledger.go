package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bankcore/ledger-engine/internal/interfaces"
	"github.com/bankcore/ledger-engine/internal/models"
	"github.com/bankcore/ledger-engine/internal/models/events"
)

const completedTopic = "transaction_completed"

// Ledger is the engine that owns every balance mutation. Each public
// operation runs as one atomic unit against the store: the balance change
// and its audit record commit together or not at all, and concurrent
// operations on the same account are serialized by per-account locks.
type Ledger struct {
	store  interfaces.LedgerStore
	events interfaces.EventPublisher // optional, may be nil
	log    *zap.Logger

	muMap map[int64]*sync.Mutex // one mutex per account id
	mapMu sync.Mutex            // protects muMap itself
}

// NewLedger creates a Ledger over the given store. publisher may be nil,
// in which case no events are emitted.
func NewLedger(store interfaces.LedgerStore, logger *zap.Logger, publisher interfaces.EventPublisher) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		store:  store,
		events: publisher,
		log:    logger,
		muMap:  make(map[int64]*sync.Mutex),
	}
}

func (l *Ledger) accountLock(id int64) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[id]; !exists {
		l.muMap[id] = &sync.Mutex{}
	}
	return l.muMap[id]
}

// wrap classifies an operation error: domain failures pass through, anything
// else is a storage failure.
func wrap(err error) error {
	if err == nil || IsDomainErr(err) {
		return err
	}
	return &StorageError{Err: err}
}

// CreateAccount allocates a new account. A non-zero opening balance is
// recorded as a DEPOSIT in the same atomic unit as the account itself.
func (l *Ledger) CreateAccount(ctx context.Context, name string, initialDeposit decimal.Decimal) (models.Account, error) {
	if initialDeposit.IsNegative() {
		return models.Account{}, ErrInvalidAmount
	}

	var id int64
	err := l.store.Atomic(ctx, func(scope interfaces.TxScope) error {
		var err error
		id, err = scope.CreateAccount(ctx, name, initialDeposit)
		if err != nil {
			return err
		}
		if initialDeposit.IsPositive() {
			return scope.Append(ctx, models.TransactionRecord{
				AccountID: id,
				Type:      models.RecordDeposit,
				Amount:    initialDeposit,
			})
		}
		return nil
	})
	if err != nil {
		l.log.Warn("account creation failed", zap.String("name", name), zap.Error(err))
		return models.Account{}, wrap(err)
	}

	l.log.Info("account created",
		zap.Int64("account_id", id),
		zap.String("balance", initialDeposit.String()))
	if initialDeposit.IsPositive() {
		l.publish(models.RecordDeposit, id, 0, "", initialDeposit)
	}
	return models.Account{ID: id, Name: name, Balance: initialDeposit}, nil
}

// GetBalance is a snapshot read of one account.
func (l *Ledger) GetBalance(ctx context.Context, id int64) (models.Account, error) {
	acc, err := l.store.GetAccount(ctx, id)
	if err != nil {
		return models.Account{}, wrap(err)
	}
	return acc, nil
}

// History returns the account's records newest first, at most limit entries.
func (l *Ledger) History(ctx context.Context, id int64, limit int) ([]models.TransactionRecord, error) {
	recs, err := l.store.History(ctx, id, limit)
	if err != nil {
		return nil, wrap(err)
	}
	return recs, nil
}

// Deposit credits amount to the account and returns the new balance.
func (l *Ledger) Deposit(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	mu := l.accountLock(id)
	mu.Lock()
	defer mu.Unlock()

	var balance decimal.Decimal
	err := l.store.Atomic(ctx, func(scope interfaces.TxScope) error {
		acc, err := scope.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		if err := scope.ApplyDelta(ctx, id, amount); err != nil {
			return err
		}
		balance = acc.Balance.Add(amount)
		return scope.Append(ctx, models.TransactionRecord{
			AccountID: id,
			Type:      models.RecordDeposit,
			Amount:    amount,
		})
	})
	if err != nil {
		l.log.Warn("deposit failed", zap.Int64("account_id", id), zap.Error(err))
		return decimal.Zero, wrap(err)
	}

	l.log.Info("deposit committed",
		zap.Int64("account_id", id),
		zap.String("amount", amount.String()))
	l.publish(models.RecordDeposit, id, 0, "", amount)
	return balance, nil
}

// Withdraw debits amount from the account and returns the new balance.
// The sufficiency check runs inside the same atomic unit as the deduction,
// so a concurrent withdrawal cannot slip between check and mutate.
func (l *Ledger) Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	mu := l.accountLock(id)
	mu.Lock()
	defer mu.Unlock()

	var balance decimal.Decimal
	err := l.store.Atomic(ctx, func(scope interfaces.TxScope) error {
		acc, err := scope.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		if acc.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		if err := scope.ApplyDelta(ctx, id, amount.Neg()); err != nil {
			return err
		}
		balance = acc.Balance.Sub(amount)
		return scope.Append(ctx, models.TransactionRecord{
			AccountID: id,
			Type:      models.RecordWithdrawal,
			Amount:    amount,
		})
	})
	if err != nil {
		l.log.Warn("withdrawal failed", zap.Int64("account_id", id), zap.Error(err))
		return decimal.Zero, wrap(err)
	}

	l.log.Info("withdrawal committed",
		zap.Int64("account_id", id),
		zap.String("amount", amount.String()))
	l.publish(models.RecordWithdrawal, id, 0, "", amount)
	return balance, nil
}

// Transfer moves amount from one account to another. Both balance changes
// and both audit records (TRANSFER_OUT on the sender, TRANSFER_IN on the
// receiver, linked by a shared transfer id) commit as one atomic unit; any
// precondition failure leaves both accounts and the log untouched.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	fromMu := l.accountLock(fromID)
	toMu := l.accountLock(toID)

	// Lock in ascending id order so two opposite-direction transfers
	// cannot deadlock each other.
	switch {
	case fromID == toID:
		fromMu.Lock()
		defer fromMu.Unlock()
	case fromID < toID:
		fromMu.Lock()
		toMu.Lock()
		defer fromMu.Unlock()
		defer toMu.Unlock()
	default:
		toMu.Lock()
		fromMu.Lock()
		defer toMu.Unlock()
		defer fromMu.Unlock()
	}

	transferID := uuid.New().String()
	l.log.Debug("transfer validating",
		zap.String("transfer_id", transferID),
		zap.Int64("from", fromID),
		zap.Int64("to", toID),
		zap.String("amount", amount.String()))

	err := l.store.Atomic(ctx, func(scope interfaces.TxScope) error {
		sender, err := scope.GetAccount(ctx, fromID)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				return ErrSenderNotFound
			}
			return err
		}
		if sender.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		if _, err := scope.GetAccount(ctx, toID); err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				return ErrReceiverNotFound
			}
			return err
		}

		if err := scope.ApplyDelta(ctx, fromID, amount.Neg()); err != nil {
			return err
		}
		if err := scope.ApplyDelta(ctx, toID, amount); err != nil {
			return err
		}

		if err := scope.Append(ctx, models.TransactionRecord{
			AccountID:  fromID,
			Type:       models.RecordTransferOut,
			Amount:     amount,
			TransferID: transferID,
		}); err != nil {
			return err
		}
		return scope.Append(ctx, models.TransactionRecord{
			AccountID:  toID,
			Type:       models.RecordTransferIn,
			Amount:     amount,
			TransferID: transferID,
		})
	})
	if err != nil {
		l.log.Warn("transfer failed",
			zap.String("transfer_id", transferID),
			zap.Int64("from", fromID),
			zap.Int64("to", toID),
			zap.Error(err))
		return wrap(err)
	}

	l.log.Info("transfer committed",
		zap.String("transfer_id", transferID),
		zap.Int64("from", fromID),
		zap.Int64("to", toID),
		zap.String("amount", amount.String()))
	l.publish(models.RecordTransferOut, fromID, toID, transferID, amount)
	return nil
}

// publish emits a committed-transaction event. Publishing is best effort:
// the mutation is already durable, so a broker failure is only logged.
func (l *Ledger) publish(t models.RecordType, accountID, toID int64, transferID string, amount decimal.Decimal) {
	if l.events == nil {
		return
	}
	evt := events.TransactionCompleted{
		Type:        t,
		AccountID:   accountID,
		ToAccountID: toID,
		TransferID:  transferID,
		Amount:      amount,
		OccurredAt:  time.Now().UTC(),
	}
	if err := l.events.Publish(completedTopic, evt); err != nil {
		l.log.Warn("event publish failed", zap.Error(err))
	}
}
