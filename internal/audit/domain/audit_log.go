package domain

import "time"

// AuditLog is one recorded auth or resource action.
type AuditLog struct {
	ID        string
	UserID    string // empty for anonymous actions (e.g. failed login on unknown email)
	Action    string // e.g. auth.login, auth.refresh, auth.logout
	Resource  string // e.g. user, session
	IP        string
	Metadata  string // free-form JSON
	CreatedAt time.Time
}
