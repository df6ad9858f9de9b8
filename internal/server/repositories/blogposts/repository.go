// Package blogposts declares and implements persistence for blog posts.
package blogposts

import (
	"context"

	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
)

// Repository stores blog posts with the same contract as projects.Repository.
type Repository interface {
	Create(ctx context.Context, p *models.BlogPost) (*models.BlogPost, error)
	GetByID(ctx context.Context, id string) (*models.BlogPost, error)
	List(ctx context.Context) ([]*models.BlogPost, error)
	Update(ctx context.Context, p *models.BlogPost) (*models.BlogPost, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}
