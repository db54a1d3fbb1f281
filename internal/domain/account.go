package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a wallet or bank account owned by a single user. Balance is a
// materialized cache of the summed effects of every transaction pointing at
// the account; it is only ever mutated through LedgerOps.IncrementAccountBalance
// or destroyed together with its transactions.
type Account struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Balance    decimal.Decimal `json:"balance"`
	UserID     string          `json:"userId"`
	CurrencyID int32           `json:"currencyId"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`

	Currency *Currency `json:"currency,omitempty"`
}

type AccountRepository interface {
	Create(ctx context.Context, account *Account) (*Account, error)
	// GetByID retrieves an account with its currency. An empty ownerID
	// disables owner scoping.
	GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*Account, error)
	// GetAllByUser retrieves the owner's accounts with currencies, ordered
	// by name.
	GetAllByUser(ctx context.Context, ownerID string) ([]*Account, error)
	// Update renames an account and/or changes its currency.
	Update(ctx context.Context, id uuid.UUID, ownerID string, name string, currencyID int32) (*Account, error)
	// DeleteWithTransactions removes the account and every transaction that
	// references it in one atomic unit. An account must never outlive a
	// state where it references transactions not included in its balance.
	DeleteWithTransactions(ctx context.Context, id uuid.UUID, ownerID string) error
	// SumBalances totals the cached balances of the owner's accounts.
	SumBalances(ctx context.Context, ownerID string) (decimal.Decimal, error)
}
