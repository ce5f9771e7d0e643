package domain

import "time"

// Session is a registered bearer token. A token whose session has been revoked
// is rejected even if its signature and expiry are still valid.
type Session struct {
	ID        string
	AdminID   string
	CreatedAt time.Time
	ExpiresAt time.Time
}
