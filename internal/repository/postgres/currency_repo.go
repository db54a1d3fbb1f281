package postgres

import (
	"context"
	"errors"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// foreignKeyViolation is the PostgreSQL error code for a foreign key
// constraint violation.
const foreignKeyViolation = "23503"

// CurrencyRepository implements domain.CurrencyRepository using PostgreSQL
type CurrencyRepository struct {
	pool *pgxpool.Pool
}

// NewCurrencyRepository creates a new CurrencyRepository
func NewCurrencyRepository(pool *pgxpool.Pool) *CurrencyRepository {
	return &CurrencyRepository{pool: pool}
}

const currencyColumns = `id, code, name, symbol, description, rate, created_at, updated_at`

// Create creates a new currency
func (r *CurrencyRepository) Create(ctx context.Context, currency *domain.Currency) (*domain.Currency, error) {
	var rate pgtype.Numeric
	if currency.Rate != nil {
		var err error
		rate, err = decimalToPgNumeric(*currency.Rate)
		if err != nil {
			return nil, err
		}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO currencies (code, name, symbol, description, rate)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+currencyColumns,
		currency.Code, currency.Name, currency.Symbol,
		stringPtrToText(currency.Description), rate,
	)
	return scanCurrency(row)
}

// GetByID retrieves a currency by its ID
func (r *CurrencyRepository) GetByID(ctx context.Context, id int32) (*domain.Currency, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+currencyColumns+` FROM currencies WHERE id = $1`, id,
	)
	currency, err := scanCurrency(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCurrencyNotFound
		}
		return nil, err
	}
	return currency, nil
}

// GetAll retrieves every currency ordered by name
func (r *CurrencyRepository) GetAll(ctx context.Context) ([]*domain.Currency, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+currencyColumns+` FROM currencies ORDER BY name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Currency
	for rows.Next() {
		currency, err := scanCurrency(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, currency)
	}
	return result, rows.Err()
}

// Update updates a currency's details
func (r *CurrencyRepository) Update(ctx context.Context, id int32, data *domain.Currency) (*domain.Currency, error) {
	var rate pgtype.Numeric
	if data.Rate != nil {
		var err error
		rate, err = decimalToPgNumeric(*data.Rate)
		if err != nil {
			return nil, err
		}
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE currencies
		SET code = $2, name = $3, symbol = $4, description = $5, rate = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+currencyColumns,
		id, data.Code, data.Name, data.Symbol, stringPtrToText(data.Description), rate,
	)
	currency, err := scanCurrency(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCurrencyNotFound
		}
		return nil, err
	}
	return currency, nil
}

// Delete removes a currency. Fails with ErrCurrencyInUse while any account
// references it; the foreign key backstops the pre-check under races.
func (r *CurrencyRepository) Delete(ctx context.Context, id int32) error {
	var inUse int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM accounts WHERE currency_id = $1`, id,
	).Scan(&inUse); err != nil {
		return err
	}
	if inUse > 0 {
		return domain.ErrCurrencyInUse
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM currencies WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return domain.ErrCurrencyInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCurrencyNotFound
	}
	return nil
}

func scanCurrency(row pgx.Row) (*domain.Currency, error) {
	var c domain.Currency
	var description pgtype.Text
	var rate pgtype.Numeric
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &description, &rate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Description = textToStringPtr(description)
	if rate.Valid {
		d := pgNumericToDecimal(rate)
		c.Rate = &d
	}
	return &c, nil
}
