package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/bankcore/ledger-engine/internal/interfaces"
	"github.com/bankcore/ledger-engine/internal/ledger"
	"github.com/bankcore/ledger-engine/internal/models"
)

const defaultHistoryLimit = 10

// Store is the durable implementation of interfaces.LedgerStore backed by
// PostgreSQL. Each atomic unit is one database transaction; account rows
// read inside a scope are locked FOR UPDATE so the check-then-mutate
// sequence cannot race a second process on the same account.
type Store struct {
	db *sql.DB
}

// Open connects to the database and verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Atomic(ctx context.Context, fn func(interfaces.TxScope) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&txScope{tx: dbTx}); err != nil {
		dbTx.Rollback()
		return err
	}
	return dbTx.Commit()
}

func (s *Store) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	const query = `SELECT id, name, balance FROM accounts WHERE id = $1`
	return scanAccount(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) History(ctx context.Context, accountID int64, limit int) ([]models.TransactionRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	const query = `SELECT id, account_id, type, amount, transfer_id, created_at
	FROM transactions WHERE account_id = $1 ORDER BY id DESC LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.TransactionRecord
	for rows.Next() {
		var rec models.TransactionRecord
		var transferID sql.NullString
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.Type, &rec.Amount, &transferID, &rec.Timestamp); err != nil {
			return nil, err
		}
		if transferID.Valid {
			rec.TransferID = transferID.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type txScope struct {
	tx *sql.Tx
}

func (t *txScope) CreateAccount(ctx context.Context, name string, balance decimal.Decimal) (int64, error) {
	const query = `INSERT INTO accounts (name, balance) VALUES ($1, $2) RETURNING id`

	var id int64
	if err := t.tx.QueryRowContext(ctx, query, name, balance).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (t *txScope) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	const query = `SELECT id, name, balance FROM accounts WHERE id = $1 FOR UPDATE`
	return scanAccount(t.tx.QueryRowContext(ctx, query, id))
}

func (t *txScope) ApplyDelta(ctx context.Context, id int64, delta decimal.Decimal) error {
	const query = `UPDATE accounts SET balance = balance + $1 WHERE id = $2`

	res, err := t.tx.ExecContext(ctx, query, delta, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func (t *txScope) Append(ctx context.Context, rec models.TransactionRecord) error {
	const query = `INSERT INTO transactions (account_id, type, amount, transfer_id, created_at)
	VALUES ($1, $2, $3, NULLIF($4, ''), $5)`

	_, err := t.tx.ExecContext(ctx, query, rec.AccountID, rec.Type, rec.Amount, rec.TransferID, time.Now().UTC())
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (models.Account, error) {
	var acc models.Account
	if err := row.Scan(&acc.ID, &acc.Name, &acc.Balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, ledger.ErrAccountNotFound
		}
		return models.Account{}, err
	}
	return acc, nil
}

// Compile-time check: Store implements the LedgerStore interface.
var _ interfaces.LedgerStore = (*Store)(nil)
