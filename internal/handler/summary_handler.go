package handler

import (
	"net/http"

	"github.com/coinkeep/coinkeep-backend/internal/middleware"
	"github.com/coinkeep/coinkeep-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SummaryHandler handles dashboard summary requests
type SummaryHandler struct {
	summaryService *service.SummaryService
}

// NewSummaryHandler creates a new SummaryHandler
func NewSummaryHandler(summaryService *service.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// SummaryResponse represents the dashboard summary in API responses
type SummaryResponse struct {
	TotalIncome  string `json:"totalIncome"`
	TotalExpense string `json:"totalExpense"`
	NetIncome    string `json:"netIncome"`
	TotalBalance string `json:"totalBalance"`
}

// GetSummary handles GET /api/v1/summary
func (h *SummaryHandler) GetSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	summary, err := h.summaryService.GetSummary(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to compute summary")
		return NewInternalError(c, "Failed to compute summary")
	}

	return c.JSON(http.StatusOK, SummaryResponse{
		TotalIncome:  summary.TotalIncome.StringFixed(2),
		TotalExpense: summary.TotalExpense.StringFixed(2),
		NetIncome:    summary.NetIncome.StringFixed(2),
		TotalBalance: summary.TotalBalance.StringFixed(2),
	})
}
