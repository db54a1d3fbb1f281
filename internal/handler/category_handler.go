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

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
	publisher       websocket.EventPublisher
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService, publisher websocket.EventPublisher) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		publisher:       publisher,
	}
}

// CategoryRequest represents the create/update category request body
type CategoryRequest struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Icon        *string `json:"icon,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Icon        *string `json:"icon,omitempty"`
	Description *string `json:"description,omitempty"`
	UserID      string  `json:"userId"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func categoryErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 255 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidCategoryType):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be one of: income, expense"},
		})
	case errors.Is(err, domain.ErrDescriptionTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description must be 1000 characters or less"},
		})
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewNotFoundError(c, "Category not found or unauthorized")
	}
	return nil
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.Create(c.Request().Context(), userID, service.CategoryInput{
		Name:        req.Name,
		Type:        domain.CategoryType(req.Type),
		Icon:        req.Icon,
		Description: req.Description,
	})
	if err != nil {
		if resp := categoryErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create category")
		return NewInternalError(c, "Failed to create category")
	}

	h.publisher.Publish(userID, websocket.CategoryCreated(category))

	log.Info().Str("user_id", userID).Str("category_id", category.ID.String()).Str("name", category.Name).Msg("Category created")
	return c.JSON(http.StatusCreated, toCategoryResponse(category))
}

// GetCategories handles GET /api/v1/categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	categories, err := h.categoryService.GetAll(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list categories")
		return NewInternalError(c, "Failed to list categories")
	}

	response := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		response[i] = toCategoryResponse(category)
	}

	return c.JSON(http.StatusOK, response)
}

// UpdateCategory handles PUT /api/v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.Update(c.Request().Context(), userID, id, service.CategoryInput{
		Name:        req.Name,
		Type:        domain.CategoryType(req.Type),
		Icon:        req.Icon,
		Description: req.Description,
	})
	if err != nil {
		if resp := categoryErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Str("category_id", id.String()).Msg("Failed to update category")
		return NewInternalError(c, "Failed to update category")
	}

	h.publisher.Publish(userID, websocket.CategoryUpdated(category))

	log.Info().Str("user_id", userID).Str("category_id", category.ID.String()).Msg("Category updated")
	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	if err := h.categoryService.Delete(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return NewNotFoundError(c, "Category not found or unauthorized")
		}
		log.Error().Err(err).Str("user_id", userID).Str("category_id", id.String()).Msg("Failed to delete category")
		return NewInternalError(c, "Failed to delete category")
	}

	h.publisher.Publish(userID, websocket.CategoryDeleted(map[string]string{"id": id.String()}))

	log.Info().Str("user_id", userID).Str("category_id", id.String()).Msg("Category deleted")
	return c.NoContent(http.StatusNoContent)
}

// Helper function to convert domain.Category to CategoryResponse
func toCategoryResponse(category *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          category.ID.String(),
		Name:        category.Name,
		Type:        string(category.Type),
		Icon:        category.Icon,
		Description: category.Description,
		UserID:      category.UserID,
		CreatedAt:   category.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   category.UpdatedAt.Format(time.RFC3339),
	}
}
