package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TransactionRepository implements domain.TransactionRepository using
// PostgreSQL. It is read-only; mutations go through the LedgerStore.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const joinedTransactionColumns = `
	t.id, t.amount, t.description, t.date, t.type, t.account_id, t.category_id, t.user_id,
	t.created_at, t.updated_at, c.name, a.name, cur.code, cur.symbol`

const joinedTransactionFrom = `
	FROM transactions t
	JOIN accounts a ON a.id = t.account_id
	JOIN categories c ON c.id = t.category_id
	JOIN currencies cur ON cur.id = a.currency_id`

// GetForOwner retrieves a transaction joined with its category, account and
// currency. Ownership is resolved through the account, so a transaction
// another user owns is indistinguishable from a missing one.
func (r *TransactionRepository) GetForOwner(ctx context.Context, id uuid.UUID, ownerID string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT`+joinedTransactionColumns+joinedTransactionFrom+`
		WHERE t.id = $1 AND ($2 = '' OR a.user_id = $2)`,
		id, ownerID,
	)
	transaction, err := scanJoinedTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// List retrieves transactions matching the filters, ordered by date
// descending with ties broken by insertion order.
func (r *TransactionRepository) List(ctx context.Context, ownerID string, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	page := int32(1)
	pageSize := int32(domain.DefaultPageSize)
	if filters != nil {
		if filters.Page > 0 {
			page = filters.Page
		}
		if filters.PageSize > 0 {
			pageSize = filters.PageSize
			if pageSize > domain.MaxPageSize {
				pageSize = domain.MaxPageSize
			}
		}
	}
	offset := int64(page-1) * int64(pageSize)

	where := []string{"($1 = '' OR a.user_id = $1)"}
	args := []any{ownerID}
	if filters != nil {
		if filters.Query != "" {
			args = append(args, escapeLike(filters.Query))
			where = append(where, fmt.Sprintf(`t.description ILIKE '%%' || $%d || '%%' ESCAPE '\'`, len(args)))
		}
		if filters.CategoryID != nil {
			args = append(args, *filters.CategoryID)
			where = append(where, fmt.Sprintf("t.category_id = $%d", len(args)))
		}
		if filters.AccountID != nil {
			args = append(args, *filters.AccountID)
			where = append(where, fmt.Sprintf("t.account_id = $%d", len(args)))
		}
	}
	condition := strings.Join(where, " AND ")

	var totalItems int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)`+joinedTransactionFrom+` WHERE `+condition,
		args...,
	).Scan(&totalItems)
	if err != nil {
		return nil, err
	}

	args = append(args, pageSize, offset)
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT%s%s WHERE %s ORDER BY t.date DESC, t.created_at ASC LIMIT $%d OFFSET $%d`,
			joinedTransactionColumns, joinedTransactionFrom, condition, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Transaction
	for rows.Next() {
		transaction, err := scanJoinedTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int32(totalItems / int64(pageSize))
	if totalItems%int64(pageSize) > 0 {
		totalPages++
	}

	return &domain.PaginatedTransactions{
		Data:       result,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// escapeLike escapes the LIKE metacharacters so the free-text query matches
// as a literal substring instead of a pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SumByTypeSince sums transaction amounts of the given type dated on or
// after since, scoped to the owner's accounts.
func (r *TransactionRepository) SumByTypeSince(ctx context.Context, ownerID string, since time.Time, txType domain.TransactionType) (decimal.Decimal, error) {
	var total pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(t.amount), 0)
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE ($1 = '' OR a.user_id = $1) AND t.date >= $2 AND t.type = $3`,
		ownerID, since, string(txType),
	).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return pgNumericToDecimal(total), nil
}

func scanJoinedTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var amount pgtype.Numeric
	var description pgtype.Text
	var txType, categoryName, accountName, currencyCode, currencySymbol string
	err := row.Scan(&t.ID, &amount, &description, &t.Date, &txType,
		&t.AccountID, &t.CategoryID, &t.UserID, &t.CreatedAt, &t.UpdatedAt,
		&categoryName, &accountName, &currencyCode, &currencySymbol)
	if err != nil {
		return nil, err
	}
	t.Amount = pgNumericToDecimal(amount)
	t.Description = textToStringPtr(description)
	t.Type = domain.TransactionType(txType)
	t.CategoryName = &categoryName
	t.AccountName = &accountName
	t.CurrencyCode = &currencyCode
	t.CurrencySymbol = &currencySymbol
	return &t, nil
}
