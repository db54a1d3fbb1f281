package testutil

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockCurrencyRepository is a mock implementation of domain.CurrencyRepository
type MockCurrencyRepository struct {
	Currencies map[int32]*domain.Currency
	NextID     int32
	// AccountRepo, when set, backs the in-use check on Delete
	AccountRepo *MockAccountRepository
	DeleteFn    func(id int32) error
}

// NewMockCurrencyRepository creates a new MockCurrencyRepository
func NewMockCurrencyRepository() *MockCurrencyRepository {
	return &MockCurrencyRepository{
		Currencies: make(map[int32]*domain.Currency),
		NextID:     1,
	}
}

// Create creates a new currency
func (m *MockCurrencyRepository) Create(ctx context.Context, currency *domain.Currency) (*domain.Currency, error) {
	currency.ID = m.NextID
	m.NextID++
	now := time.Now()
	currency.CreatedAt = now
	currency.UpdatedAt = now
	m.Currencies[currency.ID] = currency
	return currency, nil
}

// GetByID retrieves a currency by ID
func (m *MockCurrencyRepository) GetByID(ctx context.Context, id int32) (*domain.Currency, error) {
	if currency, ok := m.Currencies[id]; ok {
		return currency, nil
	}
	return nil, domain.ErrCurrencyNotFound
}

// GetAll retrieves every currency ordered by name
func (m *MockCurrencyRepository) GetAll(ctx context.Context) ([]*domain.Currency, error) {
	currencies := make([]*domain.Currency, 0, len(m.Currencies))
	for _, currency := range m.Currencies {
		currencies = append(currencies, currency)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i].Name < currencies[j].Name })
	return currencies, nil
}

// Update updates an existing currency
func (m *MockCurrencyRepository) Update(ctx context.Context, id int32, data *domain.Currency) (*domain.Currency, error) {
	currency, ok := m.Currencies[id]
	if !ok {
		return nil, domain.ErrCurrencyNotFound
	}
	currency.Code = data.Code
	currency.Name = data.Name
	currency.Symbol = data.Symbol
	currency.Description = data.Description
	currency.Rate = data.Rate
	currency.UpdatedAt = time.Now()
	return currency, nil
}

// Delete deletes a currency unless an account still references it
func (m *MockCurrencyRepository) Delete(ctx context.Context, id int32) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(id)
	}
	if _, ok := m.Currencies[id]; !ok {
		return domain.ErrCurrencyNotFound
	}
	if m.AccountRepo != nil {
		for _, account := range m.AccountRepo.Accounts {
			if account.CurrencyID == id {
				return domain.ErrCurrencyInUse
			}
		}
	}
	delete(m.Currencies, id)
	return nil
}

// AddCurrency adds a currency to the mock repository (helper for tests)
func (m *MockCurrencyRepository) AddCurrency(currency *domain.Currency) {
	if currency.ID == 0 {
		currency.ID = m.NextID
		m.NextID++
	} else if currency.ID >= m.NextID {
		m.NextID = currency.ID + 1
	}
	m.Currencies[currency.ID] = currency
}

// MockAccountRepository is a mock implementation of domain.AccountRepository
type MockAccountRepository struct {
	Accounts map[uuid.UUID]*domain.Account
	// CurrencyRepo, when set, resolves the Currency field on reads
	CurrencyRepo *MockCurrencyRepository
	// TransactionRepo, when set, participates in cascade deletes
	TransactionRepo *MockTransactionRepository
	CreateFn        func(account *domain.Account) (*domain.Account, error)
	GetByIDFn       func(id uuid.UUID, ownerID string) (*domain.Account, error)
	DeleteFn        func(id uuid.UUID, ownerID string) error
}

// NewMockAccountRepository creates a new MockAccountRepository
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		Accounts: make(map[uuid.UUID]*domain.Account),
	}
}

func (m *MockAccountRepository) withCurrency(account *domain.Account) *domain.Account {
	if account.Currency == nil && m.CurrencyRepo != nil {
		if currency, ok := m.CurrencyRepo.Currencies[account.CurrencyID]; ok {
			account.Currency = currency
		}
	}
	return account
}

// Create creates a new account with a zero balance
func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if m.CreateFn != nil {
		return m.CreateFn(account)
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.Balance = decimal.Zero
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	m.Accounts[account.ID] = account
	return m.withCurrency(account), nil
}

// GetByID retrieves an account; an empty ownerID disables owner scoping
func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*domain.Account, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id, ownerID)
	}
	account, ok := m.Accounts[id]
	if !ok || (ownerID != "" && account.UserID != ownerID) {
		return nil, domain.ErrAccountNotFound
	}
	return m.withCurrency(account), nil
}

// GetAllByUser retrieves the owner's accounts ordered by name
func (m *MockAccountRepository) GetAllByUser(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	accounts := []*domain.Account{}
	for _, account := range m.Accounts {
		if account.UserID == ownerID {
			accounts = append(accounts, m.withCurrency(account))
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

// Update renames an account and/or changes its currency
func (m *MockAccountRepository) Update(ctx context.Context, id uuid.UUID, ownerID string, name string, currencyID int32) (*domain.Account, error) {
	account, ok := m.Accounts[id]
	if !ok || (ownerID != "" && account.UserID != ownerID) {
		return nil, domain.ErrAccountNotFound
	}
	account.Name = name
	account.CurrencyID = currencyID
	account.Currency = nil
	account.UpdatedAt = time.Now()
	return m.withCurrency(account), nil
}

// DeleteWithTransactions removes the account and every transaction
// referencing it
func (m *MockAccountRepository) DeleteWithTransactions(ctx context.Context, id uuid.UUID, ownerID string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(id, ownerID)
	}
	account, ok := m.Accounts[id]
	if !ok || (ownerID != "" && account.UserID != ownerID) {
		return domain.ErrAccountNotFound
	}
	if m.TransactionRepo != nil {
		for txID, tx := range m.TransactionRepo.Transactions {
			if tx.AccountID == id {
				delete(m.TransactionRepo.Transactions, txID)
			}
		}
	}
	delete(m.Accounts, id)
	return nil
}

// SumBalances totals the cached balances of the owner's accounts
func (m *MockAccountRepository) SumBalances(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, account := range m.Accounts {
		if ownerID == "" || account.UserID == ownerID {
			total = total.Add(account.Balance)
		}
	}
	return total, nil
}

// AddAccount adds an account to the mock repository (helper for tests)
func (m *MockAccountRepository) AddAccount(account *domain.Account) {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	m.Accounts[account.ID] = account
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[uuid.UUID]*domain.Category
	GetByIDFn  func(id uuid.UUID) (*domain.Category, error)
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[uuid.UUID]*domain.Category),
	}
}

// Create creates a new category
func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now
	m.Categories[category.ID] = category
	return category, nil
}

// GetByID retrieves a category without owner scoping
func (m *MockCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	if category, ok := m.Categories[id]; ok {
		return category, nil
	}
	return nil, domain.ErrCategoryNotFound
}

// GetAllByUser retrieves the owner's categories ordered by name
func (m *MockCategoryRepository) GetAllByUser(ctx context.Context, ownerID string) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, category := range m.Categories {
		if category.UserID == ownerID {
			categories = append(categories, category)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

// Update updates an existing category
func (m *MockCategoryRepository) Update(ctx context.Context, id uuid.UUID, ownerID string, data *domain.Category) (*domain.Category, error) {
	category, ok := m.Categories[id]
	if !ok || (ownerID != "" && category.UserID != ownerID) {
		return nil, domain.ErrCategoryNotFound
	}
	category.Name = data.Name
	category.Type = data.Type
	category.Icon = data.Icon
	category.Description = data.Description
	category.UpdatedAt = time.Now()
	return category, nil
}

// Delete deletes a category
func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	category, ok := m.Categories[id]
	if !ok || (ownerID != "" && category.UserID != ownerID) {
		return domain.ErrCategoryNotFound
	}
	delete(m.Categories, id)
	return nil
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	m.Categories[category.ID] = category
}

// MockTransactionRepository is a mock implementation of
// domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[uuid.UUID]*domain.Transaction
	// AccountRepo and CategoryRepo, when set, resolve joined fields on reads
	AccountRepo  *MockAccountRepository
	CategoryRepo *MockCategoryRepository
	GetFn        func(id uuid.UUID, ownerID string) (*domain.Transaction, error)
	ListFn       func(ownerID string, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error)
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[uuid.UUID]*domain.Transaction),
	}
}

// withJoins returns a copy of the stored row with joined fields resolved, so
// callers never alias the repository's internal state.
func (m *MockTransactionRepository) withJoins(stored *domain.Transaction) *domain.Transaction {
	tx := copyTransaction(stored)
	if m.AccountRepo != nil {
		if account, ok := m.AccountRepo.Accounts[tx.AccountID]; ok {
			name := account.Name
			tx.AccountName = &name
			if m.AccountRepo.CurrencyRepo != nil {
				if currency, ok := m.AccountRepo.CurrencyRepo.Currencies[account.CurrencyID]; ok {
					code := currency.Code
					symbol := currency.Symbol
					tx.CurrencyCode = &code
					tx.CurrencySymbol = &symbol
				}
			}
		}
	}
	if m.CategoryRepo != nil {
		if category, ok := m.CategoryRepo.Categories[tx.CategoryID]; ok {
			name := category.Name
			tx.CategoryName = &name
		}
	}
	return tx
}

// GetForOwner retrieves a transaction; an empty ownerID disables scoping
func (m *MockTransactionRepository) GetForOwner(ctx context.Context, id uuid.UUID, ownerID string) (*domain.Transaction, error) {
	if m.GetFn != nil {
		return m.GetFn(id, ownerID)
	}
	tx, ok := m.Transactions[id]
	if !ok || (ownerID != "" && tx.UserID != ownerID) {
		return nil, domain.ErrTransactionNotFound
	}
	return m.withJoins(tx), nil
}

// List retrieves filtered transactions ordered by date descending, ties
// broken by insertion order
func (m *MockTransactionRepository) List(ctx context.Context, ownerID string, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	if m.ListFn != nil {
		return m.ListFn(ownerID, filters)
	}

	matched := []*domain.Transaction{}
	for _, tx := range m.Transactions {
		if ownerID != "" && tx.UserID != ownerID {
			continue
		}
		if filters.Query != "" {
			if tx.Description == nil || !strings.Contains(strings.ToLower(*tx.Description), strings.ToLower(filters.Query)) {
				continue
			}
		}
		if filters.CategoryID != nil && tx.CategoryID != *filters.CategoryID {
			continue
		}
		if filters.AccountID != nil && tx.AccountID != *filters.AccountID {
			continue
		}
		matched = append(matched, tx)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	totalItems := int64(len(matched))
	totalPages := int32((totalItems + int64(filters.PageSize) - 1) / int64(filters.PageSize))
	offset := int64(filters.Page-1) * int64(filters.PageSize)

	page := []*domain.Transaction{}
	for i := offset; i < offset+int64(filters.PageSize) && i < int64(len(matched)); i++ {
		page = append(page, m.withJoins(matched[i]))
	}

	return &domain.PaginatedTransactions{
		Data:       page,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// SumByTypeSince sums amounts of the given type dated on or after since
func (m *MockTransactionRepository) SumByTypeSince(ctx context.Context, ownerID string, since time.Time, txType domain.TransactionType) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, tx := range m.Transactions {
		if ownerID != "" && tx.UserID != ownerID {
			continue
		}
		if tx.Type != txType || tx.Date.Before(since) {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total, nil
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(tx *domain.Transaction) {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	m.Transactions[tx.ID] = tx
}

// MockLedgerStore is a mock implementation of domain.LedgerStore that shares
// state with MockAccountRepository and MockTransactionRepository. RunAtomic
// snapshots both maps before running the callback and restores them when it
// fails, so aborted units leave no partial writes behind.
type MockLedgerStore struct {
	AccountRepo     *MockAccountRepository
	TransactionRepo *MockTransactionRepository

	// Error injection for abort scenarios
	FailCreate    error
	FailUpdate    error
	FailDelete    error
	FailIncrement error

	// AtomicCalls counts RunAtomic invocations
	AtomicCalls int
}

// NewMockLedgerStore creates a MockLedgerStore sharing the given repositories
func NewMockLedgerStore(accountRepo *MockAccountRepository, transactionRepo *MockTransactionRepository) *MockLedgerStore {
	return &MockLedgerStore{
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
	}
}

func copyAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func copyTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	return &c
}

// RunAtomic runs fn against the shared maps, rolling back on error
func (m *MockLedgerStore) RunAtomic(ctx context.Context, fn func(ops domain.LedgerOps) error) error {
	m.AtomicCalls++

	accountSnapshot := make(map[uuid.UUID]*domain.Account, len(m.AccountRepo.Accounts))
	for id, account := range m.AccountRepo.Accounts {
		accountSnapshot[id] = copyAccount(account)
	}
	transactionSnapshot := make(map[uuid.UUID]*domain.Transaction, len(m.TransactionRepo.Transactions))
	for id, tx := range m.TransactionRepo.Transactions {
		transactionSnapshot[id] = copyTransaction(tx)
	}

	if err := fn(&mockLedgerOps{store: m}); err != nil {
		m.AccountRepo.Accounts = accountSnapshot
		m.TransactionRepo.Transactions = transactionSnapshot
		return err
	}
	return nil
}

type mockLedgerOps struct {
	store *MockLedgerStore
}

func (o *mockLedgerOps) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if o.store.FailCreate != nil {
		return nil, o.store.FailCreate
	}
	created := copyTransaction(tx)
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	now := time.Now()
	created.CreatedAt = now
	created.UpdatedAt = now
	o.store.TransactionRepo.Transactions[created.ID] = created
	return created, nil
}

func (o *mockLedgerOps) UpdateTransaction(ctx context.Context, id uuid.UUID, data *domain.TransactionData) (*domain.Transaction, error) {
	if o.store.FailUpdate != nil {
		return nil, o.store.FailUpdate
	}
	tx, ok := o.store.TransactionRepo.Transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	tx.Amount = data.Amount
	tx.Description = data.Description
	tx.Date = data.Date
	tx.Type = data.Type
	tx.AccountID = data.AccountID
	tx.CategoryID = data.CategoryID
	tx.UpdatedAt = time.Now()
	return tx, nil
}

func (o *mockLedgerOps) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if o.store.FailDelete != nil {
		return o.store.FailDelete
	}
	if _, ok := o.store.TransactionRepo.Transactions[id]; !ok {
		return domain.ErrTransactionNotFound
	}
	delete(o.store.TransactionRepo.Transactions, id)
	return nil
}

func (o *mockLedgerOps) IncrementAccountBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (*domain.Account, error) {
	if o.store.FailIncrement != nil {
		return nil, o.store.FailIncrement
	}
	account, ok := o.store.AccountRepo.Accounts[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	account.Balance = account.Balance.Add(delta)
	account.UpdatedAt = time.Now()
	return account, nil
}

// MockAuthorizer is a mock implementation of domain.Authorizer
type MockAuthorizer struct {
	// Permissions maps "action subject" to allow/deny
	Permissions map[string]bool
}

// NewMockAuthorizer creates a MockAuthorizer with no permissions granted
func NewMockAuthorizer() *MockAuthorizer {
	return &MockAuthorizer{Permissions: make(map[string]bool)}
}

// Grant grants an action on a subject (helper for tests)
func (m *MockAuthorizer) Grant(action, subject string) {
	m.Permissions[action+" "+subject] = true
}

// HasPermission reports whether the action on the subject was granted
func (m *MockAuthorizer) HasPermission(ctx context.Context, action, subject string) bool {
	return m.Permissions[action+" "+subject]
}
