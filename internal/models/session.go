package models

import "time"

// UserSession is one issued session credential. A user accumulates many rows
// over time but at most one is active at any instant: creating a new session
// deactivates every other active row for the same user.
type UserSession struct {
	ID           string
	UserID       string
	Token        string // opaque, unguessable; bound to exactly this row
	DeviceInfo   string
	IPAddress    string
	IsActive     bool
	LastActivity time.Time
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Session lifetimes. Remember-me logins get the long expiry.
const (
	SessionTTL           = 12 * time.Hour
	PersistentSessionTTL = 30 * 24 * time.Hour

	// Inactive sessions older than this are eligible for physical deletion.
	SessionIdlePurgeAge = 7 * 24 * time.Hour
)

// Expired reports whether the session's hard expiry has passed.
func (s *UserSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
