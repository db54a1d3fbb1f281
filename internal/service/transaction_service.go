package service

import (
	"context"
	"strings"
	"time"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionService is the single entry point for transaction operations.
// It validates input, verifies ownership, and delegates every
// balance-affecting write to the Reconciler.
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	accountRepo     domain.AccountRepository
	categoryRepo    domain.CategoryRepository
	reconciler      *Reconciler
	authz           domain.Authorizer
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository, accountRepo domain.AccountRepository, categoryRepo domain.CategoryRepository, reconciler *Reconciler, authz domain.Authorizer) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		categoryRepo:    categoryRepo,
		reconciler:      reconciler,
		authz:           authz,
	}
}

// TransactionInput holds the validated payload for creating or updating a
// transaction.
type TransactionInput struct {
	Amount      decimal.Decimal
	Description *string
	Date        time.Time
	Type        domain.TransactionType
	AccountID   uuid.UUID
	CategoryID  uuid.UUID
}

func (s *TransactionService) validateInput(input *TransactionInput) error {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}
	if !input.Type.Valid() {
		return domain.ErrInvalidTransactionType
	}
	if input.Date.IsZero() {
		return domain.ErrInvalidDate
	}
	if input.Description != nil {
		trimmed := strings.TrimSpace(*input.Description)
		if trimmed == "" {
			input.Description = nil
		} else {
			if len(trimmed) > domain.MaxDescriptionLength {
				return domain.ErrDescriptionTooLong
			}
			input.Description = &trimmed
		}
	}
	return nil
}

// Create validates the payload, verifies that the account belongs to the
// acting user and the category exists, then creates the transaction and its
// balance effect atomically. The result is joined with its category and
// account+currency.
func (s *TransactionService) Create(ctx context.Context, userID string, input TransactionInput) (*domain.Transaction, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if err := s.validateInput(&input); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByID(ctx, input.AccountID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.categoryRepo.GetByID(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	created, err := s.reconciler.Create(ctx, &domain.Transaction{
		Amount:      input.Amount,
		Description: input.Description,
		Date:        input.Date,
		Type:        input.Type,
		AccountID:   input.AccountID,
		CategoryID:  input.CategoryID,
		UserID:      account.UserID,
	})
	if err != nil {
		return nil, err
	}

	return s.transactionRepo.GetForOwner(ctx, created.ID, userID)
}

// Update loads the original transaction scoped to the acting user, verifies
// the target account on reassignment, then applies the row update and the
// reconciling balance deltas atomically. The account the transaction was on
// before the update is returned alongside the result; on a cross-account
// move both that account's balance and the new account's balance change.
func (s *TransactionService) Update(ctx context.Context, userID string, id uuid.UUID, input TransactionInput) (*domain.Transaction, uuid.UUID, error) {
	if userID == "" {
		return nil, uuid.Nil, domain.ErrUnauthenticated
	}
	if err := s.validateInput(&input); err != nil {
		return nil, uuid.Nil, err
	}

	original, err := s.transactionRepo.GetForOwner(ctx, id, userID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	previousAccountID := original.AccountID

	if input.AccountID != original.AccountID {
		if _, err := s.accountRepo.GetByID(ctx, input.AccountID, userID); err != nil {
			return nil, uuid.Nil, err
		}
	}
	if _, err := s.categoryRepo.GetByID(ctx, input.CategoryID); err != nil {
		return nil, uuid.Nil, err
	}

	if _, err := s.reconciler.Update(ctx, original, &domain.TransactionData{
		Amount:      input.Amount,
		Description: input.Description,
		Date:        input.Date,
		Type:        input.Type,
		AccountID:   input.AccountID,
		CategoryID:  input.CategoryID,
	}); err != nil {
		return nil, uuid.Nil, err
	}

	updated, err := s.transactionRepo.GetForOwner(ctx, id, userID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return updated, previousAccountID, nil
}

// Delete loads the transaction scoped to the acting user, then removes it
// and reverses its balance effect atomically. The removed transaction is
// returned so callers can report what was deleted.
func (s *TransactionService) Delete(ctx context.Context, userID string, id uuid.UUID) (*domain.Transaction, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	transaction, err := s.transactionRepo.GetForOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if err := s.reconciler.Delete(ctx, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

// Get retrieves a single transaction, widened to all users' rows when the
// acting user holds the elevated read permission.
func (s *TransactionService) Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Transaction, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.transactionRepo.GetForOwner(ctx, id, s.readScope(ctx, userID))
}

// List retrieves paginated, filtered transactions. Scope widens to all rows
// only when the acting user holds `read all-transactions`.
func (s *TransactionService) List(ctx context.Context, userID string, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.transactionRepo.List(ctx, s.readScope(ctx, userID), filters)
}

func (s *TransactionService) readScope(ctx context.Context, userID string) string {
	if s.authz != nil && s.authz.HasPermission(ctx, "read", "all-transactions") {
		return ""
	}
	return userID
}
