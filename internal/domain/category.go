package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Valid reports whether t is one of the canonical category types.
func (t CategoryType) Valid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// Category organizes transactions for display and filtering. Its type is not
// enforced against the types of transactions that reference it.
type Category struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Type        CategoryType `json:"type"`
	Icon        *string      `json:"icon,omitempty"`
	Description *string      `json:"description,omitempty"`
	UserID      string       `json:"userId"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type CategoryRepository interface {
	Create(ctx context.Context, category *Category) (*Category, error)
	// GetByID is unscoped; it backs existence checks on transaction writes.
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	GetAllByUser(ctx context.Context, ownerID string) ([]*Category, error)
	Update(ctx context.Context, id uuid.UUID, ownerID string, data *Category) (*Category, error)
	Delete(ctx context.Context, id uuid.UUID, ownerID string) error
}
