package repository

import (
	"context"

	"ticketdesk/backend/internal/category/domain"
)

// Repository defines persistence for categories. Reads include the number of
// tickets referencing each category.
type Repository interface {
	// GetByID returns the category for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	// GetByName returns the category with the given name, or nil if not found.
	// Names are unique.
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, c *domain.Category) error
	// List returns all categories ordered by name.
	List(ctx context.Context) ([]*domain.Category, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}
