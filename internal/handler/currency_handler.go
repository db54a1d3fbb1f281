package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/coinkeep/coinkeep-backend/internal/middleware"
	"github.com/coinkeep/coinkeep-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CurrencyHandler handles currency-related HTTP requests
type CurrencyHandler struct {
	currencyService *service.CurrencyService
}

// NewCurrencyHandler creates a new CurrencyHandler
func NewCurrencyHandler(currencyService *service.CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

// CurrencyRequest represents the create/update currency request body
type CurrencyRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Description *string `json:"description,omitempty"`
	Rate        *string `json:"rate,omitempty"`
}

// CurrencyResponse represents a currency in API responses
type CurrencyResponse struct {
	ID          int32   `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Description *string `json:"description,omitempty"`
	Rate        *string `json:"rate,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func parseCurrencyRequest(req *CurrencyRequest) (service.CurrencyInput, []ValidationError) {
	input := service.CurrencyInput{
		Code:        req.Code,
		Name:        req.Name,
		Symbol:      req.Symbol,
		Description: req.Description,
	}
	if req.Rate != nil && *req.Rate != "" {
		rate, err := decimal.NewFromString(*req.Rate)
		if err != nil {
			return input, []ValidationError{{Field: "rate", Message: "Must be a valid decimal number"}}
		}
		input.Rate = &rate
	}
	return input, nil
}

func currencyErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrCodeRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "code", Message: "Code is required"},
		})
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name or code exceeds the allowed length"},
		})
	case errors.Is(err, domain.ErrCurrencyNotFound):
		return NewNotFoundError(c, "Currency not found")
	}
	return nil
}

// CreateCurrency handles POST /api/v1/currencies
func (h *CurrencyHandler) CreateCurrency(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CurrencyRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, fieldErrs := parseCurrencyRequest(&req)
	if fieldErrs != nil {
		return NewValidationError(c, "Validation failed", fieldErrs)
	}

	currency, err := h.currencyService.Create(c.Request().Context(), input)
	if err != nil {
		if resp := currencyErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create currency")
		return NewInternalError(c, "Failed to create currency")
	}

	log.Info().Str("user_id", userID).Int32("currency_id", currency.ID).Str("code", currency.Code).Msg("Currency created")
	return c.JSON(http.StatusCreated, toCurrencyResponse(currency))
}

// GetCurrencies handles GET /api/v1/currencies
func (h *CurrencyHandler) GetCurrencies(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	currencies, err := h.currencyService.GetAll(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list currencies")
		return NewInternalError(c, "Failed to list currencies")
	}

	response := make([]CurrencyResponse, len(currencies))
	for i, currency := range currencies {
		response[i] = toCurrencyResponse(currency)
	}

	return c.JSON(http.StatusOK, response)
}

// UpdateCurrency handles PUT /api/v1/currencies/:id
func (h *CurrencyHandler) UpdateCurrency(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return NewValidationError(c, "Invalid currency ID", nil)
	}

	var req CurrencyRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, fieldErrs := parseCurrencyRequest(&req)
	if fieldErrs != nil {
		return NewValidationError(c, "Validation failed", fieldErrs)
	}

	currency, err := h.currencyService.Update(c.Request().Context(), int32(id), input)
	if err != nil {
		if resp := currencyErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Int64("currency_id", id).Msg("Failed to update currency")
		return NewInternalError(c, "Failed to update currency")
	}

	log.Info().Str("user_id", userID).Int32("currency_id", currency.ID).Msg("Currency updated")
	return c.JSON(http.StatusOK, toCurrencyResponse(currency))
}

// DeleteCurrency handles DELETE /api/v1/currencies/:id
// A currency referenced by any account cannot be deleted.
func (h *CurrencyHandler) DeleteCurrency(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return NewValidationError(c, "Invalid currency ID", nil)
	}

	if err := h.currencyService.Delete(c.Request().Context(), int32(id)); err != nil {
		if errors.Is(err, domain.ErrCurrencyNotFound) {
			return NewNotFoundError(c, "Currency not found")
		}
		if errors.Is(err, domain.ErrCurrencyInUse) {
			return NewConflictError(c, "Currency is in use by existing accounts")
		}
		log.Error().Err(err).Str("user_id", userID).Int64("currency_id", id).Msg("Failed to delete currency")
		return NewInternalError(c, "Failed to delete currency")
	}

	log.Info().Str("user_id", userID).Int64("currency_id", id).Msg("Currency deleted")
	return c.NoContent(http.StatusNoContent)
}

// Helper function to convert domain.Currency to CurrencyResponse
func toCurrencyResponse(currency *domain.Currency) CurrencyResponse {
	resp := CurrencyResponse{
		ID:          currency.ID,
		Code:        currency.Code,
		Name:        currency.Name,
		Symbol:      currency.Symbol,
		Description: currency.Description,
		CreatedAt:   currency.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   currency.UpdatedAt.Format(time.RFC3339),
	}
	if currency.Rate != nil {
		rate := currency.Rate.String()
		resp.Rate = &rate
	}
	return resp
}
