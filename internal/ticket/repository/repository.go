package repository

import (
	"context"

	"ticketdesk/backend/internal/ticket/domain"
)

// Repository defines persistence for tickets. List methods return the joined
// read model so handlers never fan out per-row user or category lookups.
type Repository interface {
	Create(ctx context.Context, t *domain.Ticket) error
	// GetByID returns the raw ticket row for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetView returns the joined read model for id, or nil if not found.
	GetView(ctx context.Context, id string) (*domain.View, error)
	ListAll(ctx context.Context, limit, offset int) ([]*domain.View, error)
	CountAll(ctx context.Context) (int, error)
	ListByAssignee(ctx context.Context, userID string, limit, offset int) ([]*domain.View, error)
	CountByAssignee(ctx context.Context, userID string) (int, error)
	ListByRequester(ctx context.Context, userID string, limit, offset int) ([]*domain.View, error)
	CountByRequester(ctx context.Context, userID string) (int, error)
	// Update persists mutable fields of the ticket row.
	Update(ctx context.Context, t *domain.Ticket) error
	// SetAssignee assigns the ticket to assigneeID. Returns false when the
	// ticket does not exist.
	SetAssignee(ctx context.Context, ticketID, assigneeID string) (bool, error)
	// Delete removes the ticket and returns false when it does not exist.
	Delete(ctx context.Context, id string) (bool, error)
}
