package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerOps is the set of writes available inside an atomic unit. Every
// balance-affecting mutation must pair its row write with the matching
// IncrementAccountBalance delta through this interface; direct balance
// writes anywhere else are forbidden.
type LedgerOps interface {
	CreateTransaction(ctx context.Context, tx *Transaction) (*Transaction, error)
	UpdateTransaction(ctx context.Context, id uuid.UUID, data *TransactionData) (*Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	IncrementAccountBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (*Account, error)
}

// LedgerStore executes a set of writes as one isolated unit: a failure in
// any aborts all, and no partial balance update is ever observable. The
// store, not its callers, is responsible for serializing conflicting
// writers to the same account or transaction row.
type LedgerStore interface {
	RunAtomic(ctx context.Context, fn func(ops LedgerOps) error) error
}
