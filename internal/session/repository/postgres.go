package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ticketdesk/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	var revokedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, refresh_token_hash, expires_at, revoked_at, created_at, updated_at
		FROM sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.ExpiresAt, &revokedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if revokedAt.Valid {
		s.RevokedAt = &revokedAt.Time
	}
	return &s, nil
}

// Create persists the session to the database. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, refresh_token_hash, expires_at, revoked_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULL, $5, $6)`,
		s.ID, s.UserID, s.RefreshTokenHash, s.ExpiresAt, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// SetRefreshHash stores the initial refresh-token hash for the session.
func (r *PostgresRepository) SetRefreshHash(ctx context.Context, sessionID, hash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET refresh_token_hash = $2, updated_at = $3 WHERE id = $1`,
		sessionID, hash, time.Now().UTC(),
	)
	return err
}

// SwapRefreshHash replaces the stored hash only when it still equals expected.
// The WHERE clause makes the read-compare-write a single atomic statement, so
// of two concurrent rotations presenting the same token exactly one sees a row
// updated.
func (r *PostgresRepository) SwapRefreshHash(ctx context.Context, sessionID, expected, next string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET refresh_token_hash = $3, updated_at = $4
		WHERE id = $1 AND refresh_token_hash = $2`,
		sessionID, expected, next, time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Revoke marks the session with the given id as revoked. COALESCE keeps the
// first revocation time on repeated calls.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = COALESCE(revoked_at, $2), updated_at = $3 WHERE id = $1`,
		id, now, now,
	)
	return err
}
