package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankcore/ledger-engine/internal/interfaces"
	"github.com/bankcore/ledger-engine/internal/ledger"
	"github.com/bankcore/ledger-engine/internal/models"
)

func TestAtomicCommitsStagedState(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var id int64
	err := store.Atomic(ctx, func(scope interfaces.TxScope) error {
		var err error
		id, err = scope.CreateAccount(ctx, "Alice", decimal.NewFromInt(50))
		if err != nil {
			return err
		}
		return scope.Append(ctx, models.TransactionRecord{
			AccountID: id,
			Type:      models.RecordDeposit,
			Amount:    decimal.NewFromInt(50),
		})
	})
	require.NoError(t, err)

	acc, err := store.GetAccount(ctx, id)
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(50)))

	history, err := store.History(ctx, id, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(1), history[0].ID)
	assert.False(t, history[0].Timestamp.IsZero())
}

func TestAtomicRollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.Atomic(ctx, func(scope interfaces.TxScope) error {
		if _, err := scope.CreateAccount(ctx, "Ghost", decimal.NewFromInt(10)); err != nil {
			return err
		}
		if err := scope.Append(ctx, models.TransactionRecord{
			AccountID: 1,
			Type:      models.RecordDeposit,
			Amount:    decimal.NewFromInt(10),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// nothing staged may be visible, and the failed scope consumes no ids
	_, err = store.GetAccount(ctx, 1)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	err = store.Atomic(ctx, func(scope interfaces.TxScope) error {
		id, err := scope.CreateAccount(ctx, "Alice", decimal.Zero)
		assert.Equal(t, int64(1), id)
		return err
	})
	require.NoError(t, err)
}

func TestScopeReadsSeeStagedDeltas(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Atomic(ctx, func(scope interfaces.TxScope) error {
		_, err := scope.CreateAccount(ctx, "Alice", decimal.NewFromInt(100))
		return err
	}))

	err := store.Atomic(ctx, func(scope interfaces.TxScope) error {
		if err := scope.ApplyDelta(ctx, 1, decimal.NewFromInt(-40)); err != nil {
			return err
		}
		acc, err := scope.GetAccount(ctx, 1)
		if err != nil {
			return err
		}
		// a read inside the scope reflects the staged deduction
		assert.True(t, acc.Balance.Equal(decimal.NewFromInt(60)))
		return nil
	})
	require.NoError(t, err)

	acc, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(60)))
}

func TestApplyDeltaUnknownAccount(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.Atomic(ctx, func(scope interfaces.TxScope) error {
		return scope.ApplyDelta(ctx, 42, decimal.NewFromInt(1))
	})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestRecordIDsAreMonotonic(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Atomic(ctx, func(scope interfaces.TxScope) error {
		_, err := scope.CreateAccount(ctx, "Alice", decimal.Zero)
		return err
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Atomic(ctx, func(scope interfaces.TxScope) error {
			if err := scope.ApplyDelta(ctx, 1, decimal.NewFromInt(1)); err != nil {
				return err
			}
			return scope.Append(ctx, models.TransactionRecord{
				AccountID: 1,
				Type:      models.RecordDeposit,
				Amount:    decimal.NewFromInt(1),
			})
		}))
	}

	history, err := store.History(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, history, 5)
	for i, rec := range history {
		assert.Equal(t, int64(5-i), rec.ID)
	}
}

func TestHistoryFiltersByAccount(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Atomic(ctx, func(scope interfaces.TxScope) error {
		if _, err := scope.CreateAccount(ctx, "Alice", decimal.Zero); err != nil {
			return err
		}
		if _, err := scope.CreateAccount(ctx, "Bob", decimal.Zero); err != nil {
			return err
		}
		for _, accID := range []int64{1, 2, 1} {
			if err := scope.Append(ctx, models.TransactionRecord{
				AccountID: accID,
				Type:      models.RecordDeposit,
				Amount:    decimal.NewFromInt(1),
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	history, err := store.History(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, rec := range history {
		assert.Equal(t, int64(1), rec.AccountID)
	}
}
