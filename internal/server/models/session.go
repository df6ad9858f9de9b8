package models

import "time"

// Session is a server-side login session. The cookie carries the opaque
// token; only its SHA-256 hash is stored. A session with TwoFAPending set
// references the user but does not authenticate them.
type Session struct {
	ID           string
	UserID       int64
	TokenHash    string
	TwoFAPending bool
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Expired reports whether the session is past its lifetime at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
