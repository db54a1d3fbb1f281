package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is immutable reference data shared across users. Rate is carried
// for display only; balances are never converted between currencies.
type Currency struct {
	ID          int32            `json:"id"`
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	Symbol      string           `json:"symbol"`
	Description *string          `json:"description,omitempty"`
	Rate        *decimal.Decimal `json:"rate,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type CurrencyRepository interface {
	Create(ctx context.Context, currency *Currency) (*Currency, error)
	GetByID(ctx context.Context, id int32) (*Currency, error)
	// GetAll retrieves every currency ordered by name.
	GetAll(ctx context.Context) ([]*Currency, error)
	Update(ctx context.Context, id int32, data *Currency) (*Currency, error)
	// Delete fails with ErrCurrencyInUse while any account references the
	// currency.
	Delete(ctx context.Context, id int32) error
}
