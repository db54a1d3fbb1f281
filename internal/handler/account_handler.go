package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/coinkeep/coinkeep-backend/internal/middleware"
	"github.com/coinkeep/coinkeep-backend/internal/service"
	"github.com/coinkeep/coinkeep-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService *service.AccountService
	publisher      websocket.EventPublisher
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *service.AccountService, publisher websocket.EventPublisher) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		publisher:      publisher,
	}
}

// AccountRequest represents the create/update account request body
type AccountRequest struct {
	Name       string `json:"name"`
	CurrencyID int32  `json:"currencyId"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Balance    string            `json:"balance"`
	UserID     string            `json:"userId"`
	CurrencyID int32             `json:"currencyId"`
	Currency   *CurrencyResponse `json:"currency,omitempty"`
	CreatedAt  string            `json:"createdAt"`
	UpdatedAt  string            `json:"updatedAt"`
}

func accountErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 255 characters or less"},
		})
	case errors.Is(err, domain.ErrCurrencyNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "currencyId", Message: "Currency not found"},
		})
	case errors.Is(err, domain.ErrAccountNotFound):
		return NewNotFoundError(c, "Account not found or unauthorized")
	}
	return nil
}

// CreateAccount handles POST /api/v1/accounts
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req AccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	account, err := h.accountService.Create(c.Request().Context(), userID, req.Name, req.CurrencyID)
	if err != nil {
		if resp := accountErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create account")
		return NewInternalError(c, "Failed to create account")
	}

	h.publisher.Publish(userID, websocket.AccountCreated(account))

	log.Info().Str("user_id", userID).Str("account_id", account.ID.String()).Str("name", account.Name).Msg("Account created")
	return c.JSON(http.StatusCreated, toAccountResponse(account))
}

// GetAccounts handles GET /api/v1/accounts
func (h *AccountHandler) GetAccounts(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	accounts, err := h.accountService.GetAll(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list accounts")
		return NewInternalError(c, "Failed to list accounts")
	}

	response := make([]AccountResponse, len(accounts))
	for i, account := range accounts {
		response[i] = toAccountResponse(account)
	}

	return c.JSON(http.StatusOK, response)
}

// UpdateAccount handles PUT /api/v1/accounts/:id
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	var req AccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	account, err := h.accountService.Update(c.Request().Context(), userID, id, req.Name, req.CurrencyID)
	if err != nil {
		if resp := accountErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Str("account_id", id.String()).Msg("Failed to update account")
		return NewInternalError(c, "Failed to update account")
	}

	h.publisher.Publish(userID, websocket.AccountUpdated(account))

	log.Info().Str("user_id", userID).Str("account_id", account.ID.String()).Msg("Account updated")
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// DeleteAccount handles DELETE /api/v1/accounts/:id
// Deleting an account removes all of its transactions with it.
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	if err := h.accountService.Delete(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewNotFoundError(c, "Account not found or unauthorized")
		}
		log.Error().Err(err).Str("user_id", userID).Str("account_id", id.String()).Msg("Failed to delete account")
		return NewInternalError(c, "Failed to delete account")
	}

	h.publisher.Publish(userID, websocket.AccountDeleted(map[string]string{"id": id.String()}))

	log.Info().Str("user_id", userID).Str("account_id", id.String()).Msg("Account deleted")
	return c.NoContent(http.StatusNoContent)
}

// Helper function to convert domain.Account to AccountResponse
func toAccountResponse(account *domain.Account) AccountResponse {
	resp := AccountResponse{
		ID:         account.ID.String(),
		Name:       account.Name,
		Balance:    account.Balance.StringFixed(2),
		UserID:     account.UserID,
		CurrencyID: account.CurrencyID,
		CreatedAt:  account.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  account.UpdatedAt.Format(time.RFC3339),
	}
	if account.Currency != nil {
		currency := toCurrencyResponse(account.Currency)
		resp.Currency = &currency
	}
	return resp
}
