// Package projects declares and implements persistence for portfolio projects.
package projects

import (
	"context"

	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
)

// Repository stores projects. Get, Update and Delete return
// common.ErrorNotFound when the id is absent.
type Repository interface {
	// Create inserts p as-is. A zero CreatedAt is filled by the database.
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	GetByID(ctx context.Context, id string) (*models.Project, error)
	// List returns projects newest first, ties broken by id.
	List(ctx context.Context) ([]*models.Project, error)
	// Update overwrites every editable field of the row with p's values.
	Update(ctx context.Context, p *models.Project) (*models.Project, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}
