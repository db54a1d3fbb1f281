package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/coinkeep/coinkeep-backend/internal/service"
	"github.com/coinkeep/coinkeep-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func newCurrencyHandlerFixture() (*CurrencyHandler, *testutil.MockCurrencyRepository, *testutil.MockAccountRepository) {
	currencyRepo := testutil.NewMockCurrencyRepository()
	accountRepo := testutil.NewMockAccountRepository()
	currencyRepo.AccountRepo = accountRepo
	accountRepo.CurrencyRepo = currencyRepo
	return NewCurrencyHandler(service.NewCurrencyService(currencyRepo)), currencyRepo, accountRepo
}

func TestCreateCurrencyHandler_Success(t *testing.T) {
	e := echo.New()
	handler, _, _ := newCurrencyHandlerFixture()

	reqBody := `{"code": "eur", "name": "Euro", "symbol": "€", "rate": "1.08"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/currencies", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupIdentity(c, "auth0|alice")

	if err := handler.CreateCurrency(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response CurrencyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Code != "EUR" {
		t.Errorf("Expected normalized code 'EUR', got %q", response.Code)
	}
	if response.Rate == nil || *response.Rate != "1.08" {
		t.Error("Expected rate '1.08' in response")
	}
}

func TestCreateCurrencyHandler_InvalidRate(t *testing.T) {
	e := echo.New()
	handler, _, _ := newCurrencyHandlerFixture()

	reqBody := `{"code": "EUR", "name": "Euro", "symbol": "€", "rate": "not-a-number"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/currencies", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupIdentity(c, "auth0|alice")

	if err := handler.CreateCurrency(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem details: %v", err)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "rate" {
		t.Errorf("Expected validation error on 'rate', got %v", problem.Errors)
	}
}

func TestDeleteCurrencyHandler_InUse(t *testing.T) {
	e := echo.New()
	handler, currencyRepo, accountRepo := newCurrencyHandlerFixture()
	currencyRepo.AddCurrency(&domain.Currency{Code: "USD", Name: "US Dollar", Symbol: "$"})
	accountRepo.AddAccount(&domain.Account{ID: uuid.New(), Name: "Checking", Balance: decimal.Zero, UserID: "auth0|alice", CurrencyID: 1})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/currencies/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupIdentity(c, "auth0|alice")

	if err := handler.DeleteCurrency(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", rec.Code)
	}
	if _, exists := currencyRepo.Currencies[1]; !exists {
		t.Error("Expected currency to survive")
	}
}

func TestDeleteCurrencyHandler_Unreferenced(t *testing.T) {
	e := echo.New()
	handler, currencyRepo, _ := newCurrencyHandlerFixture()
	currencyRepo.AddCurrency(&domain.Currency{Code: "JPY", Name: "Japanese Yen", Symbol: "¥"})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/currencies/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupIdentity(c, "auth0|alice")

	if err := handler.DeleteCurrency(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rec.Code)
	}
	if _, exists := currencyRepo.Currencies[1]; exists {
		t.Error("Expected currency to be removed")
	}
}

func TestGetCurrenciesHandler(t *testing.T) {
	e := echo.New()
	handler, currencyRepo, _ := newCurrencyHandlerFixture()
	currencyRepo.AddCurrency(&domain.Currency{Code: "USD", Name: "US Dollar", Symbol: "$"})
	currencyRepo.AddCurrency(&domain.Currency{Code: "EUR", Name: "Euro", Symbol: "€"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/currencies", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupIdentity(c, "auth0|alice")

	if err := handler.GetCurrencies(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response []CurrencyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 2 {
		t.Fatalf("Expected 2 currencies, got %d", len(response))
	}
	for _, currency := range response {
		if currency.ID == 0 {
			t.Error("Expected assigned currency ID")
		}
	}
}
