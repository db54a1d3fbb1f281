package service

import (
	"context"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
)

// Reconciler keeps Account.Balance consistent with the set of transactions
// referencing the account. Every mutation pairs its row write with the
// minimal balance delta, computed against the stored prior state, inside a
// single atomic unit. Callers are responsible for ownership checks before
// invoking any method here.
type Reconciler struct {
	store domain.LedgerStore
}

// NewReconciler creates a new Reconciler
func NewReconciler(store domain.LedgerStore) *Reconciler {
	return &Reconciler{store: store}
}

// Create inserts a transaction and applies its effect to the account
// balance in one atomic unit.
func (r *Reconciler) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	var created *domain.Transaction
	err := r.store.RunAtomic(ctx, func(ops domain.LedgerOps) error {
		tx, err := ops.CreateTransaction(ctx, transaction)
		if err != nil {
			return err
		}
		if _, err := ops.IncrementAccountBalance(ctx, tx.AccountID, tx.Effect()); err != nil {
			return err
		}
		created = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update replaces a transaction's state and reconciles the affected account
// balances. On the same account a single net delta suffices; when the
// transaction moves between accounts the original effect is fully reversed
// on the old account and the new effect fully applied on the new one, since
// each balance must reconcile against only the transactions that currently
// reference it.
func (r *Reconciler) Update(ctx context.Context, original *domain.Transaction, data *domain.TransactionData) (*domain.Transaction, error) {
	originalAccountID := original.AccountID
	originalEffect := original.Effect()
	newEffect := data.Effect()

	var updated *domain.Transaction
	err := r.store.RunAtomic(ctx, func(ops domain.LedgerOps) error {
		tx, err := ops.UpdateTransaction(ctx, original.ID, data)
		if err != nil {
			return err
		}

		if data.AccountID == originalAccountID {
			delta := newEffect.Sub(originalEffect)
			if _, err := ops.IncrementAccountBalance(ctx, originalAccountID, delta); err != nil {
				return err
			}
		} else {
			if _, err := ops.IncrementAccountBalance(ctx, originalAccountID, originalEffect.Neg()); err != nil {
				return err
			}
			if _, err := ops.IncrementAccountBalance(ctx, data.AccountID, newEffect); err != nil {
				return err
			}
		}

		updated = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a transaction and reverses its effect on the account
// balance in one atomic unit.
func (r *Reconciler) Delete(ctx context.Context, transaction *domain.Transaction) error {
	return r.store.RunAtomic(ctx, func(ops domain.LedgerOps) error {
		if err := ops.DeleteTransaction(ctx, transaction.ID); err != nil {
			return err
		}
		_, err := ops.IncrementAccountBalance(ctx, transaction.AccountID, transaction.Effect().Neg())
		return err
	})
}
