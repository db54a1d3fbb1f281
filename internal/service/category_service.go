package service

import (
	"context"
	"strings"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/google/uuid"
)

// CategoryService handles category-related business logic
type CategoryService struct {
	categoryRepo domain.CategoryRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// CategoryInput holds the payload for creating or updating a category
type CategoryInput struct {
	Name        string
	Type        domain.CategoryType
	Icon        *string
	Description *string
}

func validateCategoryInput(input *CategoryInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return domain.ErrNameRequired
	}
	if len(input.Name) > domain.MaxNameLength {
		return domain.ErrNameTooLong
	}
	if !input.Type.Valid() {
		return domain.ErrInvalidCategoryType
	}
	if input.Description != nil && len(*input.Description) > domain.MaxDescriptionLength {
		return domain.ErrDescriptionTooLong
	}
	return nil
}

// Create creates a new category for the acting user
func (s *CategoryService) Create(ctx context.Context, userID string, input CategoryInput) (*domain.Category, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if err := validateCategoryInput(&input); err != nil {
		return nil, err
	}

	return s.categoryRepo.Create(ctx, &domain.Category{
		Name:        input.Name,
		Type:        input.Type,
		Icon:        input.Icon,
		Description: input.Description,
		UserID:      userID,
	})
}

// GetAll retrieves the acting user's categories
func (s *CategoryService) GetAll(ctx context.Context, userID string) ([]*domain.Category, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.categoryRepo.GetAllByUser(ctx, userID)
}

// Update updates a category owned by the acting user
func (s *CategoryService) Update(ctx context.Context, userID string, id uuid.UUID, input CategoryInput) (*domain.Category, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if err := validateCategoryInput(&input); err != nil {
		return nil, err
	}

	return s.categoryRepo.Update(ctx, id, userID, &domain.Category{
		Name:        input.Name,
		Type:        input.Type,
		Icon:        input.Icon,
		Description: input.Description,
	})
}

// Delete removes a category owned by the acting user. Balances are not
// affected; transactions keep their category reference until reassigned.
func (s *CategoryService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	return s.categoryRepo.Delete(ctx, id, userID)
}
