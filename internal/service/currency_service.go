package service

import (
	"context"
	"strings"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// CurrencyService handles currency reference data
type CurrencyService struct {
	currencyRepo domain.CurrencyRepository
}

// NewCurrencyService creates a new CurrencyService
func NewCurrencyService(currencyRepo domain.CurrencyRepository) *CurrencyService {
	return &CurrencyService{currencyRepo: currencyRepo}
}

// CurrencyInput holds the payload for creating or updating a currency
type CurrencyInput struct {
	Code        string
	Name        string
	Symbol      string
	Description *string
	Rate        *decimal.Decimal
}

func validateCurrencyInput(input *CurrencyInput) error {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	if input.Code == "" {
		return domain.ErrCodeRequired
	}
	if len(input.Code) > domain.MaxCurrencyCodeLength {
		return domain.ErrNameTooLong
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return domain.ErrNameRequired
	}
	if len(input.Name) > domain.MaxNameLength {
		return domain.ErrNameTooLong
	}
	return nil
}

// Create creates a new currency
func (s *CurrencyService) Create(ctx context.Context, input CurrencyInput) (*domain.Currency, error) {
	if err := validateCurrencyInput(&input); err != nil {
		return nil, err
	}

	return s.currencyRepo.Create(ctx, &domain.Currency{
		Code:        input.Code,
		Name:        input.Name,
		Symbol:      input.Symbol,
		Description: input.Description,
		Rate:        input.Rate,
	})
}

// GetAll retrieves every currency ordered by name
func (s *CurrencyService) GetAll(ctx context.Context) ([]*domain.Currency, error) {
	return s.currencyRepo.GetAll(ctx)
}

// Update updates a currency's details
func (s *CurrencyService) Update(ctx context.Context, id int32, input CurrencyInput) (*domain.Currency, error) {
	if err := validateCurrencyInput(&input); err != nil {
		return nil, err
	}

	return s.currencyRepo.Update(ctx, id, &domain.Currency{
		Code:        input.Code,
		Name:        input.Name,
		Symbol:      input.Symbol,
		Description: input.Description,
		Rate:        input.Rate,
	})
}

// Delete removes a currency unless an account still references it
func (s *CurrencyService) Delete(ctx context.Context, id int32) error {
	return s.currencyRepo.Delete(ctx, id)
}
