package security

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt rejects inputs longer than 72 bytes. Refresh tokens are JWTs well
// past that limit, so longer secrets are pre-digested with SHA-256 before
// hashing. The digest is hex-encoded (64 bytes) to stay under the limit.
const bcryptInputLimit = 72

// Hasher hashes and verifies secrets using bcrypt. It is used both for user
// passwords and for stored refresh-token hashes, so equality checks go through
// Compare rather than an index lookup. Callers must not log or persist
// plaintext passwords.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31). Cost 12 is a
// reasonable default for interactive login.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a bcrypt hash of secret. Returns the hash as a string suitable
// for storage.
func (h *Hasher) Hash(secret []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(normalize(secret), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies secret against the stored hash using constant-time
// comparison. Returns nil if they match; returns an error (including
// bcrypt.ErrMismatchedHashAndPassword) if they do not or on invalid hash.
func (h *Hasher) Compare(hash string, secret []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), normalize(secret))
}

func normalize(secret []byte) []byte {
	if len(secret) <= bcryptInputLimit {
		return secret
	}
	sum := sha256.Sum256(secret)
	return []byte(hex.EncodeToString(sum[:]))
}
