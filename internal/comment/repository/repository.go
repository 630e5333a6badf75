package repository

import (
	"context"

	"ticketdesk/backend/internal/comment/domain"
)

// Repository defines persistence for comments. Reads return the joined read
// model; GetByID returns the raw row for ownership checks.
type Repository interface {
	Create(ctx context.Context, c *domain.Comment) error
	// GetByID returns the raw comment row for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	// GetView returns the joined read model for id, or nil if not found.
	GetView(ctx context.Context, id string) (*domain.View, error)
	// List returns comments newest first, optionally filtered by ticket.
	// ticketID == "" means no filter.
	List(ctx context.Context, ticketID string, limit, offset int) ([]*domain.View, error)
	Count(ctx context.Context, ticketID string) (int, error)
	SetBody(ctx context.Context, id, body string) error
	Delete(ctx context.Context, id string) error
}
