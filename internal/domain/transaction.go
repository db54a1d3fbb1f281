package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the canonical transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction is an income or expense entry against an account. Amount is
// always a positive magnitude; direction is carried by Type, never by the
// sign of Amount.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description,omitempty"`
	Date        time.Time       `json:"date"`
	Type        TransactionType `json:"type"`
	AccountID   uuid.UUID       `json:"accountId"`
	CategoryID  uuid.UUID       `json:"categoryId"`
	UserID      string          `json:"userId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	// Populated by joined reads
	CategoryName   *string `json:"categoryName,omitempty"`
	AccountName    *string `json:"accountName,omitempty"`
	CurrencyCode   *string `json:"currencyCode,omitempty"`
	CurrencySymbol *string `json:"currencySymbol,omitempty"`
}

// Effect returns the signed delta this transaction contributes to its
// account's cached balance.
func (t *Transaction) Effect() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// TransactionData carries the replacement state for an update.
type TransactionData struct {
	Amount      decimal.Decimal
	Description *string
	Date        time.Time
	Type        TransactionType
	AccountID   uuid.UUID
	CategoryID  uuid.UUID
}

// Effect returns the signed balance delta the updated state will contribute.
func (d *TransactionData) Effect() decimal.Decimal {
	if d.Type == TransactionTypeExpense {
		return d.Amount.Neg()
	}
	return d.Amount
}

// TransactionFilters compose with AND semantics. Query matches the
// description with a case-insensitive substring.
type TransactionFilters struct {
	Query      string
	CategoryID *uuid.UUID
	AccountID  *uuid.UUID
	Page       int32
	PageSize   int32
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type PaginatedTransactions struct {
	Data       []*Transaction `json:"data"`
	Page       int32          `json:"page"`
	PageSize   int32          `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int32          `json:"totalPages"`
}

// TransactionRepository is the read side of transaction persistence. All
// mutations go through the LedgerStore so balance deltas can never be
// applied outside an atomic unit.
type TransactionRepository interface {
	// GetForOwner retrieves a transaction joined with its category, account
	// and currency. An empty ownerID disables owner scoping.
	GetForOwner(ctx context.Context, id uuid.UUID, ownerID string) (*Transaction, error)
	// List retrieves committed transactions ordered by date descending,
	// ties broken by insertion order. An empty ownerID disables scoping.
	List(ctx context.Context, ownerID string, filters *TransactionFilters) (*PaginatedTransactions, error)
	// SumByTypeSince sums amounts of the given type dated on or after since.
	SumByTypeSince(ctx context.Context, ownerID string, since time.Time, txType TransactionType) (decimal.Decimal, error)
}
