// Package users declares and implements persistence for operator accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
)

// Repository stores users. Lookups return common.ErrorNotFound when no row
// matches; Create returns common.ErrConflict on a duplicate username or email.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	MarkEmailVerified(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// SetTwoFASecret stores a secret without enabling 2FA.
	SetTwoFASecret(ctx context.Context, id int64, secret string) error
	// EnableTwoFA flips the flag; it only succeeds if a secret is stored.
	EnableTwoFA(ctx context.Context, id int64) error
	// DisableTwoFA clears both the flag and the secret.
	DisableTwoFA(ctx context.Context, id int64) error
}
