package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/coinkeep/coinkeep-backend/internal/service"
	"github.com/coinkeep/coinkeep-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func TestGetSummaryHandler(t *testing.T) {
	e := echo.New()
	accountRepo := testutil.NewMockAccountRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	accountRepo.TransactionRepo = transactionRepo
	transactionRepo.AccountRepo = accountRepo
	handler := NewSummaryHandler(service.NewSummaryService(accountRepo, transactionRepo))

	accountRepo.AddAccount(&domain.Account{
		ID: uuid.New(), Name: "Checking",
		Balance: decimal.NewFromInt(1500), UserID: "auth0|alice",
	})
	accountRepo.AddAccount(&domain.Account{
		ID: uuid.New(), Name: "Savings",
		Balance: decimal.NewFromInt(500), UserID: "auth0|alice",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupIdentity(c, "auth0|alice")

	if err := handler.GetSummary(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response SummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.TotalBalance != "2000.00" {
		t.Errorf("Expected total balance '2000.00', got %q", response.TotalBalance)
	}
	if response.TotalIncome != "0.00" || response.TotalExpense != "0.00" || response.NetIncome != "0.00" {
		t.Errorf("Expected zero monthly figures, got income %q expense %q net %q",
			response.TotalIncome, response.TotalExpense, response.NetIncome)
	}
}

func TestGetSummaryHandler_Unauthenticated(t *testing.T) {
	e := echo.New()
	accountRepo := testutil.NewMockAccountRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	handler := NewSummaryHandler(service.NewSummaryService(accountRepo, transactionRepo))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.GetSummary(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", rec.Code)
	}
}
