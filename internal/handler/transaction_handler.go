package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/coinkeep/coinkeep-backend/internal/middleware"
	"github.com/coinkeep/coinkeep-backend/internal/service"
	"github.com/coinkeep/coinkeep-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
	publisher          websocket.EventPublisher
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService, publisher websocket.EventPublisher) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		publisher:          publisher,
	}
}

// TransactionRequest represents the create/update transaction request body
type TransactionRequest struct {
	Amount      string  `json:"amount"`
	Description *string `json:"description,omitempty"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	AccountID   string  `json:"accountId"`
	CategoryID  string  `json:"categoryId"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID             string  `json:"id"`
	Amount         string  `json:"amount"`
	Description    *string `json:"description,omitempty"`
	Date           string  `json:"date"`
	Type           string  `json:"type"`
	AccountID      string  `json:"accountId"`
	CategoryID     string  `json:"categoryId"`
	UserID         string  `json:"userId"`
	CategoryName   *string `json:"categoryName,omitempty"`
	AccountName    *string `json:"accountName,omitempty"`
	CurrencyCode   *string `json:"currencyCode,omitempty"`
	CurrencySymbol *string `json:"currencySymbol,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

// PaginatedTransactionsResponse represents paginated transactions in API responses
type PaginatedTransactionsResponse struct {
	Data       []TransactionResponse `json:"data"`
	Page       int32                 `json:"page"`
	PageSize   int32                 `json:"pageSize"`
	TotalItems int64                 `json:"totalItems"`
	TotalPages int32                 `json:"totalPages"`
}

// parseTransactionRequest converts the wire payload into a service input,
// reporting the first field that fails to parse.
func parseTransactionRequest(req *TransactionRequest) (service.TransactionInput, []ValidationError) {
	var input service.TransactionInput

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return input, []ValidationError{{Field: "amount", Message: "Must be a valid decimal number"}}
	}

	date, err := parseDateParam(req.Date)
	if err != nil {
		return input, []ValidationError{{Field: "date", Message: "Must be an RFC 3339 timestamp or YYYY-MM-DD"}}
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return input, []ValidationError{{Field: "accountId", Message: "Must be a valid UUID"}}
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return input, []ValidationError{{Field: "categoryId", Message: "Must be a valid UUID"}}
	}

	input = service.TransactionInput{
		Amount:      amount,
		Description: req.Description,
		Date:        date,
		Type:        domain.TransactionType(req.Type),
		AccountID:   accountID,
		CategoryID:  categoryID,
	}
	return input, nil
}

// transactionErrorResponse maps domain errors from transaction writes to
// Problem Details responses. Returns nil for errors it does not recognize.
func transactionErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	case errors.Is(err, domain.ErrInvalidTransactionType):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be one of: income, expense"},
		})
	case errors.Is(err, domain.ErrInvalidDate):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "date", Message: "Date is required"},
		})
	case errors.Is(err, domain.ErrDescriptionTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description must be 1000 characters or less"},
		})
	case errors.Is(err, domain.ErrAccountNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "accountId", Message: "Account not found or unauthorized"},
		})
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category not found"},
		})
	case errors.Is(err, domain.ErrTransactionNotFound):
		return NewNotFoundError(c, "Transaction not found or unauthorized")
	}
	return nil
}

// CreateTransaction handles POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, fieldErrs := parseTransactionRequest(&req)
	if fieldErrs != nil {
		return NewValidationError(c, "Validation failed", fieldErrs)
	}

	transaction, err := h.transactionService.Create(c.Request().Context(), userID, input)
	if err != nil {
		if resp := transactionErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create transaction")
		return NewInternalError(c, "Failed to create transaction")
	}

	h.publisher.Publish(userID, websocket.TransactionCreated(transaction))
	h.publisher.Publish(userID, websocket.AccountBalanceChanged(balanceChangedPayload{AccountID: transaction.AccountID.String()}))

	log.Info().Str("user_id", userID).Str("transaction_id", transaction.ID.String()).Str("type", string(transaction.Type)).Msg("Transaction created")
	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// GetTransactions handles GET /api/v1/transactions
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	filters := &domain.TransactionFilters{
		Page:     1,
		PageSize: domain.DefaultPageSize,
	}

	filters.Query = c.QueryParam("query")

	if categoryIDStr := c.QueryParam("categoryId"); categoryIDStr != "" {
		categoryID, err := uuid.Parse(categoryIDStr)
		if err != nil {
			return NewValidationError(c, "Invalid categoryId", nil)
		}
		filters.CategoryID = &categoryID
	}

	if accountIDStr := c.QueryParam("accountId"); accountIDStr != "" {
		accountID, err := uuid.Parse(accountIDStr)
		if err != nil {
			return NewValidationError(c, "Invalid accountId", nil)
		}
		filters.AccountID = &accountID
	}

	if pageStr := c.QueryParam("page"); pageStr != "" {
		page, err := strconv.ParseInt(pageStr, 10, 32)
		if err != nil || page < 1 {
			return NewValidationError(c, "Invalid page (must be positive integer)", nil)
		}
		filters.Page = int32(page)
	}

	if pageSizeStr := c.QueryParam("pageSize"); pageSizeStr != "" {
		pageSize, err := strconv.ParseInt(pageSizeStr, 10, 32)
		if err != nil || pageSize < 1 {
			return NewValidationError(c, "Invalid pageSize (must be positive integer)", nil)
		}
		if pageSize > domain.MaxPageSize {
			pageSize = domain.MaxPageSize
		}
		filters.PageSize = int32(pageSize)
	}

	result, err := h.transactionService.List(c.Request().Context(), userID, filters)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions")
		return NewInternalError(c, "Failed to list transactions")
	}

	response := PaginatedTransactionsResponse{
		Data:       make([]TransactionResponse, len(result.Data)),
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	}
	for i, transaction := range result.Data {
		response.Data[i] = toTransactionResponse(transaction)
	}

	return c.JSON(http.StatusOK, response)
}

// GetTransaction handles GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	transaction, err := h.transactionService.Get(c.Request().Context(), userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found or unauthorized")
		}
		log.Error().Err(err).Str("user_id", userID).Str("transaction_id", id.String()).Msg("Failed to get transaction")
		return NewInternalError(c, "Failed to get transaction")
	}

	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// UpdateTransaction handles PUT /api/v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, fieldErrs := parseTransactionRequest(&req)
	if fieldErrs != nil {
		return NewValidationError(c, "Validation failed", fieldErrs)
	}

	transaction, previousAccountID, err := h.transactionService.Update(c.Request().Context(), userID, id, input)
	if err != nil {
		if resp := transactionErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Str("transaction_id", id.String()).Msg("Failed to update transaction")
		return NewInternalError(c, "Failed to update transaction")
	}

	h.publisher.Publish(userID, websocket.TransactionUpdated(transaction))
	h.publisher.Publish(userID, websocket.AccountBalanceChanged(balanceChangedPayload{AccountID: transaction.AccountID.String()}))
	if previousAccountID != transaction.AccountID {
		h.publisher.Publish(userID, websocket.AccountBalanceChanged(balanceChangedPayload{AccountID: previousAccountID.String()}))
	}

	log.Info().Str("user_id", userID).Str("transaction_id", transaction.ID.String()).Msg("Transaction updated")
	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	transaction, err := h.transactionService.Delete(c.Request().Context(), userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found or unauthorized")
		}
		log.Error().Err(err).Str("user_id", userID).Str("transaction_id", id.String()).Msg("Failed to delete transaction")
		return NewInternalError(c, "Failed to delete transaction")
	}

	h.publisher.Publish(userID, websocket.TransactionDeleted(transaction))
	h.publisher.Publish(userID, websocket.AccountBalanceChanged(balanceChangedPayload{AccountID: transaction.AccountID.String()}))

	log.Info().Str("user_id", userID).Str("transaction_id", id.String()).Msg("Transaction deleted")
	return c.NoContent(http.StatusNoContent)
}

// balanceChangedPayload tells clients which account's cached balance moved.
// Clients refetch the account rather than trusting a pushed number.
type balanceChangedPayload struct {
	AccountID string `json:"accountId"`
}

// parseDateParam accepts RFC 3339 timestamps and falls back to bare dates.
func parseDateParam(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// Helper function to convert domain.Transaction to TransactionResponse
func toTransactionResponse(transaction *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             transaction.ID.String(),
		Amount:         transaction.Amount.StringFixed(2),
		Description:    transaction.Description,
		Date:           transaction.Date.Format(time.RFC3339),
		Type:           string(transaction.Type),
		AccountID:      transaction.AccountID.String(),
		CategoryID:     transaction.CategoryID.String(),
		UserID:         transaction.UserID,
		CategoryName:   transaction.CategoryName,
		AccountName:    transaction.AccountName,
		CurrencyCode:   transaction.CurrencyCode,
		CurrencySymbol: transaction.CurrencySymbol,
		CreatedAt:      transaction.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      transaction.UpdatedAt.Format(time.RFC3339),
	}
}
