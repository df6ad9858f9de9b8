// Package models defines the server-side records persisted in Postgres.
package models

import "time"

// User is an operator account. PasswordHash is a bcrypt hash; the plaintext
// is never stored. TwoFASecret is nil until 2FA setup has begun, and
// TwoFAEnabled is only ever true while TwoFASecret is set.
type User struct {
	ID            int64
	Username      string
	Email         string
	PasswordHash  string
	TwoFASecret   *string
	TwoFAEnabled  bool
	EmailVerified bool
	CreatedAt     time.Time
}

// HasTwoFASecret reports whether 2FA setup has begun.
func (u *User) HasTwoFASecret() bool {
	return u.TwoFASecret != nil && *u.TwoFASecret != ""
}
