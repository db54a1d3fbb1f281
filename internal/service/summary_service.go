package service

import (
	"context"
	"time"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Summary aggregates the acting user's current-month activity and total
// balance across accounts.
type Summary struct {
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	NetIncome    decimal.Decimal `json:"netIncome"`
	TotalBalance decimal.Decimal `json:"totalBalance"`
}

// SummaryService computes read-only dashboard aggregates
type SummaryService struct {
	accountRepo     domain.AccountRepository
	transactionRepo domain.TransactionRepository
	now             func() time.Time
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(accountRepo domain.AccountRepository, transactionRepo domain.TransactionRepository) *SummaryService {
	return &SummaryService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		now:             time.Now,
	}
}

// GetSummary returns current-month income/expense totals and the summed
// balance of the acting user's accounts.
func (s *SummaryService) GetSummary(ctx context.Context, userID string) (*Summary, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	now := s.now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	income, err := s.transactionRepo.SumByTypeSince(ctx, userID, startOfMonth, domain.TransactionTypeIncome)
	if err != nil {
		return nil, err
	}
	expense, err := s.transactionRepo.SumByTypeSince(ctx, userID, startOfMonth, domain.TransactionTypeExpense)
	if err != nil {
		return nil, err
	}
	balance, err := s.accountRepo.SumBalances(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		NetIncome:    income.Sub(expense),
		TotalBalance: balance,
	}, nil
}
