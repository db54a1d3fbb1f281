package service

import (
	"context"
	"strings"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/google/uuid"
)

// AccountService handles account-related business logic
type AccountService struct {
	accountRepo  domain.AccountRepository
	currencyRepo domain.CurrencyRepository
}

// NewAccountService creates a new AccountService
func NewAccountService(accountRepo domain.AccountRepository, currencyRepo domain.CurrencyRepository) *AccountService {
	return &AccountService{
		accountRepo:  accountRepo,
		currencyRepo: currencyRepo,
	}
}

// Create creates a new account for the acting user with a zero balance
func (s *AccountService) Create(ctx context.Context, userID string, name string, currencyID int32) (*domain.Account, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}

	currency, err := s.currencyRepo.GetByID(ctx, currencyID)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.Create(ctx, &domain.Account{
		Name:       name,
		UserID:     userID,
		CurrencyID: currencyID,
	})
	if err != nil {
		return nil, err
	}
	account.Currency = currency
	return account, nil
}

// GetAll retrieves the acting user's accounts with currencies
func (s *AccountService) GetAll(ctx context.Context, userID string) ([]*domain.Account, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.accountRepo.GetAllByUser(ctx, userID)
}

// Update renames an account and/or changes its currency
func (s *AccountService) Update(ctx context.Context, userID string, id uuid.UUID, name string, currencyID int32) (*domain.Account, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}

	if _, err := s.currencyRepo.GetByID(ctx, currencyID); err != nil {
		return nil, err
	}

	return s.accountRepo.Update(ctx, id, userID, name, currencyID)
}

// Delete removes an account together with every transaction referencing it.
// The cascade is a single atomic unit: an account must never be observable
// referencing transactions not included in its own balance.
func (s *AccountService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}

	if _, err := s.accountRepo.GetByID(ctx, id, userID); err != nil {
		return err
	}

	return s.accountRepo.DeleteWithTransactions(ctx, id, userID)
}
