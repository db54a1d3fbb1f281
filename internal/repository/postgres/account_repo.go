package postgres

import (
	"context"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// AccountRepository implements domain.AccountRepository using PostgreSQL
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountWithCurrencyQuery = `
	SELECT a.id, a.name, a.balance, a.user_id, a.currency_id, a.created_at, a.updated_at,
	       cur.id, cur.code, cur.name, cur.symbol, cur.description, cur.rate, cur.created_at, cur.updated_at
	FROM accounts a
	JOIN currencies cur ON cur.id = a.currency_id`

// Create creates a new account with a zero balance
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	id := account.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	var created domain.Account
	var balance pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, name, balance, user_id, currency_id)
		VALUES ($1, $2, 0, $3, $4)
		RETURNING id, name, balance, user_id, currency_id, created_at, updated_at`,
		id, account.Name, account.UserID, account.CurrencyID,
	).Scan(&created.ID, &created.Name, &balance, &created.UserID, &created.CurrencyID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, err
	}
	created.Balance = pgNumericToDecimal(balance)
	return &created, nil
}

// GetByID retrieves an account with its currency, optionally scoped to an owner
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		accountWithCurrencyQuery+` WHERE a.id = $1 AND ($2 = '' OR a.user_id = $2)`,
		id, ownerID,
	)
	account, err := scanAccountWithCurrency(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// GetAllByUser retrieves the owner's accounts with currencies, ordered by name
func (r *AccountRepository) GetAllByUser(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		accountWithCurrencyQuery+` WHERE a.user_id = $1 ORDER BY a.name ASC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Account
	for rows.Next() {
		account, err := scanAccountWithCurrency(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	return result, rows.Err()
}

// Update renames an account and/or changes its currency
func (r *AccountRepository) Update(ctx context.Context, id uuid.UUID, ownerID string, name string, currencyID int32) (*domain.Account, error) {
	var updated domain.Account
	var balance pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET name = $3, currency_id = $4, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, name, balance, user_id, currency_id, created_at, updated_at`,
		id, ownerID, name, currencyID,
	).Scan(&updated.ID, &updated.Name, &balance, &updated.UserID, &updated.CurrencyID, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	updated.Balance = pgNumericToDecimal(balance)
	return &updated, nil
}

// DeleteWithTransactions removes the account and all its transactions in a
// single atomic unit. The transactions go first because of the foreign key;
// if the owner check on the account fails, the whole unit rolls back.
func (r *AccountRepository) DeleteWithTransactions(ctx context.Context, id uuid.UUID, ownerID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE account_id = $1`, id); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return tx.Commit(ctx)
}

// SumBalances totals the cached balances of the owner's accounts
func (r *AccountRepository) SumBalances(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	var total pgtype.Numeric
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(balance), 0) FROM accounts WHERE user_id = $1`,
		ownerID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return pgNumericToDecimal(total), nil
}

func scanAccountWithCurrency(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var c domain.Currency
	var balance, rate pgtype.Numeric
	var currencyDescription pgtype.Text
	err := row.Scan(&a.ID, &a.Name, &balance, &a.UserID, &a.CurrencyID, &a.CreatedAt, &a.UpdatedAt,
		&c.ID, &c.Code, &c.Name, &c.Symbol, &currencyDescription, &rate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Balance = pgNumericToDecimal(balance)
	c.Description = textToStringPtr(currencyDescription)
	if rate.Valid {
		d := pgNumericToDecimal(rate)
		c.Rate = &d
	}
	a.Currency = &c
	return &a, nil
}
