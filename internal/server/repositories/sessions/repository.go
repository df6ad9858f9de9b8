// Package sessions declares the server-side repository contract for login
// sessions held in persistent storage.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
)

// Repository defines operations for issuing, looking up and revoking sessions.
type Repository interface {
	// Create stores a new session. ID, TokenHash, UserID and ExpiresAt must be set.
	Create(ctx context.Context, s *models.Session) error

	// GetByTokenHash looks up a session by the hash of its cookie token.
	// Implementations return common.ErrorNotFound when absent.
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)

	// Delete removes a session by id. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUserID revokes all sessions of a user.
	DeleteByUserID(ctx context.Context, userID int64) error
}
