package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/coinkeep/coinkeep-backend/internal/middleware"
	"github.com/coinkeep/coinkeep-backend/internal/service"
	"github.com/coinkeep/coinkeep-backend/internal/testutil"
	"github.com/coinkeep/coinkeep-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// setupIdentity injects an authenticated identity into the request context
func setupIdentity(c echo.Context, userID string, roles ...string) {
	ctx := middleware.WithIdentity(c.Request().Context(), userID, roles)
	c.SetRequest(c.Request().WithContext(ctx))
}

// recordingPublisher captures published events for assertions
type recordingPublisher struct {
	events []websocket.Event
}

func (p *recordingPublisher) Publish(userID string, event websocket.Event) {
	p.events = append(p.events, event)
}

func (p *recordingPublisher) eventTypes() []string {
	types := make([]string, len(p.events))
	for i, event := range p.events {
		types[i] = event.Type
	}
	return types
}

type handlerFixture struct {
	handler         *TransactionHandler
	accountRepo     *testutil.MockAccountRepository
	transactionRepo *testutil.MockTransactionRepository
	categoryRepo    *testutil.MockCategoryRepository
	publisher       *recordingPublisher
}

func newHandlerFixture() *handlerFixture {
	accountRepo := testutil.NewMockAccountRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	transactionRepo.AccountRepo = accountRepo
	transactionRepo.CategoryRepo = categoryRepo
	accountRepo.TransactionRepo = transactionRepo
	store := testutil.NewMockLedgerStore(accountRepo, transactionRepo)
	transactionService := service.NewTransactionService(transactionRepo, accountRepo, categoryRepo, service.NewReconciler(store), testutil.NewMockAuthorizer())
	publisher := &recordingPublisher{}
	return &handlerFixture{
		handler:         NewTransactionHandler(transactionService, publisher),
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		publisher:       publisher,
	}
}

func (f *handlerFixture) seed(userID string) (*domain.Account, *domain.Category) {
	account := &domain.Account{ID: uuid.New(), Name: "Checking", Balance: decimal.Zero, UserID: userID}
	f.accountRepo.AddAccount(account)
	category := &domain.Category{ID: uuid.New(), Name: "Groceries", Type: domain.CategoryTypeExpense, UserID: userID}
	f.categoryRepo.AddCategory(category)
	return account, category
}

func TestCreateTransactionHandler_Success(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	account, category := f.seed("auth0|alice")

	reqBody := `{"amount": "49.99", "type": "expense", "date": "2026-03-10", "accountId": "` + account.ID.String() + `", "categoryId": "` + category.ID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupIdentity(c, "auth0|alice")

	if err := f.handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Amount != "49.99" {
		t.Errorf("Expected amount '49.99', got %s", response.Amount)
	}
	if response.Type != "expense" {
		t.Errorf("Expected type 'expense', got %s", response.Type)
	}
	if response.CategoryName == nil || *response.CategoryName != "Groceries" {
		t.Error("Expected joined category name in response")
	}

	types := f.publisher.eventTypes()
	if len(types) != 2 || types[0] != "transaction.created" || types[1] != "account.balance_changed" {
		t.Errorf("Expected transaction.created and account.balance_changed events, got %v", types)
	}
}

func TestCreateTransactionHandler_Unauthenticated(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := f.handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestCreateTransactionHandler_InvalidAmount(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	account, category := f.seed("auth0|alice")

	reqBody := `{"amount": "abc", "type": "expense", "date": "2026-03-10", "accountId": "` + account.ID.String() + `", "categoryId": "` + category.ID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupIdentity(c, "auth0|alice")

	if err := f.handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if problem.Type != ErrorTypeValidation {
		t.Errorf("Expected validation problem type, got %s", problem.Type)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "amount" {
		t.Errorf("Expected a field error on 'amount', got %v", problem.Errors)
	}
	if len(f.publisher.events) != 0 {
		t.Error("Expected no events published on validation failure")
	}
}

func TestCreateTransactionHandler_ForeignAccount(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	account, category := f.seed("auth0|bob")

	reqBody := `{"amount": "10.00", "type": "income", "date": "2026-03-10", "accountId": "` + account.ID.String() + `", "categoryId": "` + category.ID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupIdentity(c, "auth0|alice")

	if err := f.handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// Another user's account is indistinguishable from a missing one
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestUpdateTransactionHandler_Success(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	account, category := f.seed("auth0|alice")

	existing := &domain.Transaction{
		ID: uuid.New(), Amount: decimal.NewFromInt(20), Type: domain.TransactionTypeExpense,
		Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), AccountID: account.ID,
		CategoryID: category.ID, UserID: "auth0|alice",
	}
	f.transactionRepo.AddTransaction(existing)
	account.Balance = decimal.NewFromInt(-20)

	reqBody := `{"amount": "35.00", "type": "expense", "date": "2026-03-01", "accountId": "` + account.ID.String() + `", "categoryId": "` + category.ID.String() + `"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/transactions/"+existing.ID.String(), strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(existing.ID.String())
	setupIdentity(c, "auth0|alice")

	if err := f.handler.UpdateTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if !f.accountRepo.Accounts[account.ID].Balance.Equal(decimal.NewFromInt(-35)) {
		t.Errorf("Expected balance reconciled to -35, got %s", f.accountRepo.Accounts[account.ID].Balance)
	}
}

func TestUpdateTransactionHandler_MovePublishesBothBalances(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	source, category := f.seed("auth0|alice")
	destination := &domain.Account{ID: uuid.New(), Name: "Savings", Balance: decimal.Zero, UserID: "auth0|alice"}
	f.accountRepo.AddAccount(destination)

	existing := &domain.Transaction{
		ID: uuid.New(), Amount: decimal.NewFromInt(50), Type: domain.TransactionTypeExpense,
		Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), AccountID: source.ID,
		CategoryID: category.ID, UserID: "auth0|alice",
	}
	f.transactionRepo.AddTransaction(existing)
	source.Balance = decimal.NewFromInt(-50)

	reqBody := `{"amount": "50.00", "type": "expense", "date": "2026-03-01", "accountId": "` + destination.ID.String() + `", "categoryId": "` + category.ID.String() + `"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/transactions/"+existing.ID.String(), strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(existing.ID.String())
	setupIdentity(c, "auth0|alice")

	if err := f.handler.UpdateTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if !f.accountRepo.Accounts[source.ID].Balance.Equal(decimal.Zero) {
		t.Errorf("Expected source balance restored to 0, got %s", f.accountRepo.Accounts[source.ID].Balance)
	}
	if !f.accountRepo.Accounts[destination.ID].Balance.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("Expected destination balance -50, got %s", f.accountRepo.Accounts[destination.ID].Balance)
	}

	// Both accounts' cached balances moved, so both get a balance event
	changed := map[string]bool{}
	for _, event := range f.publisher.events {
		if event.Type == "account.balance_changed" {
			payload := event.Payload.(balanceChangedPayload)
			changed[payload.AccountID] = true
		}
	}
	if !changed[source.ID.String()] {
		t.Error("Expected balance_changed for the source account")
	}
	if !changed[destination.ID.String()] {
		t.Error("Expected balance_changed for the destination account")
	}
	if len(changed) != 2 {
		t.Errorf("Expected exactly 2 balance_changed accounts, got %d", len(changed))
	}
}

func TestDeleteTransactionHandler_Success(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	account, category := f.seed("auth0|alice")

	existing := &domain.Transaction{
		ID: uuid.New(), Amount: decimal.NewFromInt(15), Type: domain.TransactionTypeIncome,
		Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), AccountID: account.ID,
		CategoryID: category.ID, UserID: "auth0|alice",
	}
	f.transactionRepo.AddTransaction(existing)
	account.Balance = decimal.NewFromInt(15)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/transactions/"+existing.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(existing.ID.String())
	setupIdentity(c, "auth0|alice")

	if err := f.handler.DeleteTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rec.Code)
	}
	if !f.accountRepo.Accounts[account.ID].Balance.Equal(decimal.Zero) {
		t.Errorf("Expected balance back at 0, got %s", f.accountRepo.Accounts[account.ID].Balance)
	}

	types := f.publisher.eventTypes()
	if len(types) != 2 || types[0] != "transaction.deleted" {
		t.Errorf("Expected transaction.deleted event, got %v", types)
	}
}

func TestDeleteTransactionHandler_NotFound(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	f.seed("auth0|alice")

	id := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/transactions/"+id.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	setupIdentity(c, "auth0|alice")

	if err := f.handler.DeleteTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetTransactionsHandler_Pagination(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	account, category := f.seed("auth0|alice")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		f.transactionRepo.AddTransaction(&domain.Transaction{
			Amount: decimal.NewFromInt(int64(i + 1)), Type: domain.TransactionTypeExpense,
			Date: base.AddDate(0, 0, i), AccountID: account.ID,
			CategoryID: category.ID, UserID: "auth0|alice",
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupIdentity(c, "auth0|alice")

	if err := f.handler.GetTransactions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response PaginatedTransactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.PageSize != domain.DefaultPageSize {
		t.Errorf("Expected default page size %d, got %d", domain.DefaultPageSize, response.PageSize)
	}
	if len(response.Data) != domain.DefaultPageSize {
		t.Errorf("Expected %d rows on the first page, got %d", domain.DefaultPageSize, len(response.Data))
	}
	if response.TotalItems != 12 {
		t.Errorf("Expected 12 total items, got %d", response.TotalItems)
	}
	if response.TotalPages != 2 {
		t.Errorf("Expected 2 pages, got %d", response.TotalPages)
	}
}

func TestGetTransactionsHandler_PageSizeClamped(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	f.seed("auth0|alice")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions?pageSize=1000", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupIdentity(c, "auth0|alice")

	if err := f.handler.GetTransactions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response PaginatedTransactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.PageSize != domain.MaxPageSize {
		t.Errorf("Expected page size clamped to %d, got %d", domain.MaxPageSize, response.PageSize)
	}
}

func TestGetTransactionsHandler_InvalidFilter(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	f.seed("auth0|alice")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions?accountId=not-a-uuid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupIdentity(c, "auth0|alice")

	if err := f.handler.GetTransactions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
