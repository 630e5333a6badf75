package repository

import (
	"context"

	"ticketdesk/backend/internal/session/domain"
)

// Repository defines persistence for sessions. There is deliberately no write
// path for ExpiresAt: rotation never extends a session's absolute lifetime.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// SetRefreshHash stores the first refresh-token hash after session creation.
	SetRefreshHash(ctx context.Context, sessionID, hash string) error
	// SwapRefreshHash replaces the stored hash only if it still equals expected.
	// Returns false when another rotation won the race. This is the per-session
	// compare-and-swap that keeps two concurrent refreshes of the same token
	// from both succeeding.
	SwapRefreshHash(ctx context.Context, sessionID, expected, next string) (bool, error)
	// Revoke marks the session revoked. Idempotent: revoking an already revoked
	// session keeps the original revocation time.
	Revoke(ctx context.Context, id string) error
}
