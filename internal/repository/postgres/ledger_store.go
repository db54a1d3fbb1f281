package postgres

import (
	"context"
	"fmt"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerStore implements domain.LedgerStore using PostgreSQL
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore creates a new LedgerStore
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// RunAtomic executes fn inside a single database transaction. Any error from
// fn rolls back every write issued through the ops handle.
func (s *LedgerStore) RunAtomic(ctx context.Context, fn func(ops domain.LedgerOps) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&ledgerOps{tx: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ledgerOps issues writes against a single in-flight database transaction
type ledgerOps struct {
	tx pgx.Tx
}

// CreateTransaction inserts a transaction row
func (o *ledgerOps) CreateTransaction(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	id := transaction.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := o.tx.QueryRow(ctx, `
		INSERT INTO transactions (id, amount, description, date, type, account_id, category_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, amount, description, date, type, account_id, category_id, user_id, created_at, updated_at`,
		id, amount, stringPtrToText(transaction.Description), transaction.Date,
		string(transaction.Type), transaction.AccountID, transaction.CategoryID, transaction.UserID,
	)
	return scanTransaction(row)
}

// UpdateTransaction replaces a transaction's mutable state
func (o *ledgerOps) UpdateTransaction(ctx context.Context, id uuid.UUID, data *domain.TransactionData) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(data.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := o.tx.QueryRow(ctx, `
		UPDATE transactions
		SET amount = $2, description = $3, date = $4, type = $5, account_id = $6, category_id = $7, updated_at = now()
		WHERE id = $1
		RETURNING id, amount, description, date, type, account_id, category_id, user_id, created_at, updated_at`,
		id, amount, stringPtrToText(data.Description), data.Date,
		string(data.Type), data.AccountID, data.CategoryID,
	)
	transaction, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// DeleteTransaction removes a transaction row
func (o *ledgerOps) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	tag, err := o.tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// IncrementAccountBalance applies a signed delta to an account's cached
// balance. The row update takes a row-level lock, so concurrent writers to
// the same account are serialized by the database.
func (o *ledgerOps) IncrementAccountBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (*domain.Account, error) {
	amount, err := decimalToPgNumeric(delta)
	if err != nil {
		return nil, fmt.Errorf("invalid delta: %w", err)
	}

	var account domain.Account
	var balance pgtype.Numeric
	err = o.tx.QueryRow(ctx, `
		UPDATE accounts
		SET balance = balance + $2, updated_at = now()
		WHERE id = $1
		RETURNING id, name, balance, user_id, currency_id, created_at, updated_at`,
		accountID, amount,
	).Scan(&account.ID, &account.Name, &balance, &account.UserID, &account.CurrencyID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	account.Balance = pgNumericToDecimal(balance)
	return &account, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var amount pgtype.Numeric
	var description pgtype.Text
	var txType string
	err := row.Scan(&t.ID, &amount, &description, &t.Date, &txType,
		&t.AccountID, &t.CategoryID, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Amount = pgNumericToDecimal(amount)
	t.Description = textToStringPtr(description)
	t.Type = domain.TransactionType(txType)
	return &t, nil
}
