package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/coinkeep/coinkeep-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type transactionFixture struct {
	service         *TransactionService
	accountRepo     *testutil.MockAccountRepository
	transactionRepo *testutil.MockTransactionRepository
	categoryRepo    *testutil.MockCategoryRepository
	authz           *testutil.MockAuthorizer
}

func newTransactionFixture() *transactionFixture {
	accountRepo := testutil.NewMockAccountRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	transactionRepo.AccountRepo = accountRepo
	transactionRepo.CategoryRepo = categoryRepo
	accountRepo.TransactionRepo = transactionRepo
	store := testutil.NewMockLedgerStore(accountRepo, transactionRepo)
	authz := testutil.NewMockAuthorizer()
	return &transactionFixture{
		service:         NewTransactionService(transactionRepo, accountRepo, categoryRepo, NewReconciler(store), authz),
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		authz:           authz,
	}
}

func (f *transactionFixture) seed(userID string) (*domain.Account, *domain.Category) {
	account := &domain.Account{ID: uuid.New(), Name: "Checking", Balance: decimal.Zero, UserID: userID}
	f.accountRepo.AddAccount(account)
	category := &domain.Category{ID: uuid.New(), Name: "Groceries", Type: domain.CategoryTypeExpense, UserID: userID}
	f.categoryRepo.AddCategory(category)
	return account, category
}

func validInput(account *domain.Account, category *domain.Category) TransactionInput {
	return TransactionInput{
		Amount:     decimal.NewFromInt(100),
		Date:       time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Type:       domain.TransactionTypeIncome,
		AccountID:  account.ID,
		CategoryID: category.ID,
	}
}

func TestTransactionCreate_Success(t *testing.T) {
	f := newTransactionFixture()
	account, category := f.seed("auth0|alice")

	transaction, err := f.service.Create(context.Background(), "auth0|alice", validInput(account, category))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !transaction.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected amount 100, got %s", transaction.Amount)
	}
	if transaction.UserID != "auth0|alice" {
		t.Errorf("Expected user ID from the owning account, got %s", transaction.UserID)
	}
	if transaction.CategoryName == nil || *transaction.CategoryName != "Groceries" {
		t.Error("Expected joined category name on the created transaction")
	}
	if transaction.AccountName == nil || *transaction.AccountName != "Checking" {
		t.Error("Expected joined account name on the created transaction")
	}
	if !f.accountRepo.Accounts[account.ID].Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected account balance 100, got %s", f.accountRepo.Accounts[account.ID].Balance)
	}
}

func TestTransactionCreate_ValidationErrors(t *testing.T) {
	f := newTransactionFixture()
	account, category := f.seed("auth0|alice")

	cases := []struct {
		name    string
		mutate  func(input *TransactionInput)
		wantErr error
	}{
		{"zero amount", func(i *TransactionInput) { i.Amount = decimal.Zero }, domain.ErrInvalidAmount},
		{"negative amount", func(i *TransactionInput) { i.Amount = decimal.NewFromInt(-5) }, domain.ErrInvalidAmount},
		{"bad type", func(i *TransactionInput) { i.Type = "transfer" }, domain.ErrInvalidTransactionType},
		{"zero date", func(i *TransactionInput) { i.Date = time.Time{} }, domain.ErrInvalidDate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput(account, category)
			tc.mutate(&input)
			_, err := f.service.Create(context.Background(), "auth0|alice", input)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if len(f.transactionRepo.Transactions) != 0 {
		t.Errorf("Expected no transactions persisted, found %d", len(f.transactionRepo.Transactions))
	}
}

func TestTransactionCreate_DescriptionTooLong(t *testing.T) {
	f := newTransactionFixture()
	account, category := f.seed("auth0|alice")

	long := make([]byte, domain.MaxDescriptionLength+1)
	for i := range long {
		long[i] = 'x'
	}
	description := string(long)

	input := validInput(account, category)
	input.Description = &description

	_, err := f.service.Create(context.Background(), "auth0|alice", input)
	if !errors.Is(err, domain.ErrDescriptionTooLong) {
		t.Errorf("Expected ErrDescriptionTooLong, got %v", err)
	}
}

func TestTransactionCreate_ForeignAccountLooksLikeNotFound(t *testing.T) {
	f := newTransactionFixture()
	account, category := f.seed("auth0|bob")

	_, err := f.service.Create(context.Background(), "auth0|alice", validInput(account, category))
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound for another user's account, got %v", err)
	}
}

func TestTransactionCreate_UnknownCategory(t *testing.T) {
	f := newTransactionFixture()
	account, _ := f.seed("auth0|alice")

	input := validInput(account, &domain.Category{ID: uuid.New()})
	_, err := f.service.Create(context.Background(), "auth0|alice", input)
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Errorf("Expected ErrCategoryNotFound, got %v", err)
	}
}

func TestTransactionUpdate_Success(t *testing.T) {
	f := newTransactionFixture()
	account, category := f.seed("auth0|alice")

	created, err := f.service.Create(context.Background(), "auth0|alice", validInput(account, category))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	input := validInput(account, category)
	input.Amount = decimal.NewFromInt(250)
	updated, previousAccountID, err := f.service.Update(context.Background(), "auth0|alice", created.ID, input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !updated.Amount.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected amount 250, got %s", updated.Amount)
	}
	if previousAccountID != account.ID {
		t.Errorf("Expected previous account %s, got %s", account.ID, previousAccountID)
	}
	if !f.accountRepo.Accounts[account.ID].Balance.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected balance reconciled to 250, got %s", f.accountRepo.Accounts[account.ID].Balance)
	}
}

func TestTransactionUpdate_MoveReportsPreviousAccount(t *testing.T) {
	f := newTransactionFixture()
	account, category := f.seed("auth0|alice")
	other := &domain.Account{ID: uuid.New(), Name: "Savings", UserID: "auth0|alice"}
	f.accountRepo.AddAccount(other)

	created, err := f.service.Create(context.Background(), "auth0|alice", validInput(account, category))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	input := validInput(account, category)
	input.AccountID = other.ID
	updated, previousAccountID, err := f.service.Update(context.Background(), "auth0|alice", created.ID, input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if updated.AccountID != other.ID {
		t.Errorf("Expected transaction moved to %s, got %s", other.ID, updated.AccountID)
	}
	if previousAccountID != account.ID {
		t.Errorf("Expected previous account %s, got %s", account.ID, previousAccountID)
	}
}

func TestTransactionUpdate_ReassignToForeignAccount(t *testing.T) {
	f := newTransactionFixture()
	account, category := f.seed("auth0|alice")
	foreign := &domain.Account{ID: uuid.New(), Name: "Bob's", UserID: "auth0|bob"}
	f.accountRepo.AddAccount(foreign)

	created, err := f.service.Create(context.Background(), "auth0|alice", validInput(account, category))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	input := validInput(account, category)
	input.AccountID = foreign.ID
	_, _, err = f.service.Update(context.Background(), "auth0|alice", created.ID, input)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound for another user's account, got %v", err)
	}
}

func TestTransactionUpdate_NotFound(t *testing.T) {
	f := newTransactionFixture()
	account, category := f.seed("auth0|alice")

	_, _, err := f.service.Update(context.Background(), "auth0|alice", uuid.New(), validInput(account, category))
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("Expected ErrTransactionNotFound, got %v", err)
	}
}

func TestTransactionDelete_Success(t *testing.T) {
	f := newTransactionFixture()
	account, category := f.seed("auth0|alice")

	created, err := f.service.Create(context.Background(), "auth0|alice", validInput(account, category))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	deleted, err := f.service.Delete(context.Background(), "auth0|alice", created.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if deleted.ID != created.ID {
		t.Error("Expected the deleted transaction returned")
	}
	if !f.accountRepo.Accounts[account.ID].Balance.Equal(decimal.Zero) {
		t.Errorf("Expected balance back at 0, got %s", f.accountRepo.Accounts[account.ID].Balance)
	}
}

func TestTransactionDelete_ForeignRowLooksLikeNotFound(t *testing.T) {
	f := newTransactionFixture()
	account, category := f.seed("auth0|bob")

	created, err := f.service.Create(context.Background(), "auth0|bob", validInput(account, category))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, err = f.service.Delete(context.Background(), "auth0|alice", created.ID)
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("Expected ErrTransactionNotFound for another user's row, got %v", err)
	}
	if len(f.transactionRepo.Transactions) != 1 {
		t.Error("Expected the row to survive the denied delete")
	}
}

func TestTransactionList_OwnerScoped(t *testing.T) {
	f := newTransactionFixture()
	aliceAccount, category := f.seed("auth0|alice")
	bobAccount := &domain.Account{ID: uuid.New(), Name: "Bob's", UserID: "auth0|bob"}
	f.accountRepo.AddAccount(bobAccount)

	for i := 0; i < 3; i++ {
		if _, err := f.service.Create(context.Background(), "auth0|alice", validInput(aliceAccount, category)); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}
	bobInput := validInput(bobAccount, category)
	if _, err := f.service.Create(context.Background(), "auth0|bob", bobInput); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	result, err := f.service.List(context.Background(), "auth0|alice", &domain.TransactionFilters{Page: 1, PageSize: domain.DefaultPageSize})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.TotalItems != 3 {
		t.Errorf("Expected 3 transactions for alice, got %d", result.TotalItems)
	}
}

func TestTransactionList_ElevatedReadSeesAllRows(t *testing.T) {
	f := newTransactionFixture()
	aliceAccount, category := f.seed("auth0|alice")
	bobAccount := &domain.Account{ID: uuid.New(), Name: "Bob's", UserID: "auth0|bob"}
	f.accountRepo.AddAccount(bobAccount)

	if _, err := f.service.Create(context.Background(), "auth0|alice", validInput(aliceAccount, category)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	bobInput := validInput(bobAccount, category)
	if _, err := f.service.Create(context.Background(), "auth0|bob", bobInput); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	f.authz.Grant("read", "all-transactions")

	result, err := f.service.List(context.Background(), "auth0|admin", &domain.TransactionFilters{Page: 1, PageSize: domain.DefaultPageSize})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.TotalItems != 2 {
		t.Errorf("Expected elevated reader to see 2 transactions, got %d", result.TotalItems)
	}
}

func TestTransactionList_Pagination(t *testing.T) {
	f := newTransactionFixture()
	account, category := f.seed("auth0|alice")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		input := validInput(account, category)
		input.Date = base.AddDate(0, 0, i)
		if _, err := f.service.Create(context.Background(), "auth0|alice", input); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	result, err := f.service.List(context.Background(), "auth0|alice", &domain.TransactionFilters{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result.Data) != 2 {
		t.Errorf("Expected 2 rows on page 2, got %d", len(result.Data))
	}
	if result.TotalItems != 5 {
		t.Errorf("Expected 5 total items, got %d", result.TotalItems)
	}
	if result.TotalPages != 3 {
		t.Errorf("Expected 3 total pages, got %d", result.TotalPages)
	}
	// Newest first: page 2 starts at the third-newest date
	if !result.Data[0].Date.Equal(base.AddDate(0, 0, 2)) {
		t.Errorf("Expected page 2 to start at day 3, got %v", result.Data[0].Date)
	}
}

func TestTransactionList_FarPageIsEmpty(t *testing.T) {
	f := newTransactionFixture()
	account, category := f.seed("auth0|alice")

	if _, err := f.service.Create(context.Background(), "auth0|alice", validInput(account, category)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// A page number large enough to overflow an int32 offset must still
	// yield an empty page, not a negative offset
	result, err := f.service.List(context.Background(), "auth0|alice", &domain.TransactionFilters{Page: math.MaxInt32, PageSize: domain.MaxPageSize})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result.Data) != 0 {
		t.Errorf("Expected empty page, got %d rows", len(result.Data))
	}
	if result.TotalItems != 1 {
		t.Errorf("Expected 1 total item, got %d", result.TotalItems)
	}
}

func TestTransactionList_FilterByDescription(t *testing.T) {
	f := newTransactionFixture()
	account, category := f.seed("auth0|alice")

	groceries := "Weekly groceries"
	rent := "Monthly rent"
	for _, description := range []*string{&groceries, &rent} {
		input := validInput(account, category)
		input.Description = description
		if _, err := f.service.Create(context.Background(), "auth0|alice", input); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	result, err := f.service.List(context.Background(), "auth0|alice", &domain.TransactionFilters{
		Query: "GROCER", Page: 1, PageSize: domain.DefaultPageSize,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.TotalItems != 1 {
		t.Errorf("Expected 1 match for case-insensitive substring, got %d", result.TotalItems)
	}
}

func TestTransactionGet_RequiresAuthentication(t *testing.T) {
	f := newTransactionFixture()

	if _, err := f.service.Get(context.Background(), "", uuid.New()); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated, got %v", err)
	}
	if _, err := f.service.List(context.Background(), "", nil); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated, got %v", err)
	}
}
