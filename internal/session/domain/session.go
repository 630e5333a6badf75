package domain

import "time"

// Session binds a refresh-token generation to a user and an absolute expiry.
// RefreshTokenHash holds the bcrypt hash of the currently valid refresh token;
// every successful refresh overwrites it, invalidating the previous token.
// ExpiresAt is fixed at creation and never extended by rotation. A session with
// a non-nil RevokedAt or an ExpiresAt in the past is terminal.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash string     // empty until first issuance completes
	ExpiresAt        time.Time
	RevokedAt        *time.Time // nil when not revoked
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
