package security

import "time"

// NewTestTokenProvider returns a TokenProvider with fixed secrets and short
// TTLs for use in tests across packages.
func NewTestTokenProvider() *TokenProvider {
	return NewTokenProvider(
		[]byte("test-access-secret"),
		[]byte("test-refresh-secret"),
		"ticketdesk-test",
		15*time.Minute,
		24*time.Hour,
	)
}
