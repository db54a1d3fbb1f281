package postgres

import (
	"context"

	"github.com/coinkeep/coinkeep-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const categoryColumns = `id, name, type, icon, description, user_id, created_at, updated_at`

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	id := category.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO categories (id, name, type, icon, description, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+categoryColumns,
		id, category.Name, string(category.Type),
		stringPtrToText(category.Icon), stringPtrToText(category.Description), category.UserID,
	)
	return scanCategory(row)
}

// GetByID retrieves a category by its ID. Unscoped: it backs existence
// checks on transaction writes.
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id,
	)
	category, err := scanCategory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetAllByUser retrieves the owner's categories ordered by name
func (r *CategoryRepository) GetAllByUser(ctx context.Context, ownerID string) ([]*domain.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 ORDER BY name ASC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}

// Update updates a category's details
func (r *CategoryRepository) Update(ctx context.Context, id uuid.UUID, ownerID string, data *domain.Category) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $3, type = $4, icon = $5, description = $6, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+categoryColumns,
		id, ownerID, data.Name, string(data.Type),
		stringPtrToText(data.Icon), stringPtrToText(data.Description),
	)
	category, err := scanCategory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// Delete removes a category owned by the given user
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	var categoryType string
	var icon, description pgtype.Text
	err := row.Scan(&c.ID, &c.Name, &categoryType, &icon, &description, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Type = domain.CategoryType(categoryType)
	c.Icon = textToStringPtr(icon)
	c.Description = textToStringPtr(description)
	return &c, nil
}
