package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Content is the public document served to the front-end.
type Content struct {
	Projects  []*models.Project  `json:"projects"`
	BlogPosts []*models.BlogPost `json:"blogPosts"`
}

// ContentService provides CRUD over projects and blog posts.
type ContentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewContentService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ContentService {
	return &ContentService{db: db, repomanager: m, log: log.With("module", "content")}
}

func requireTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return common.NewValidationError("title", "is required")
	}
	return nil
}

// All returns both collections, newest first.
func (s *ContentService) All(ctx context.Context) (*Content, error) {
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.ListBlogPosts(ctx)
	if err != nil {
		return nil, err
	}
	return &Content{Projects: projects, BlogPosts: posts}, nil
}

func (s *ContentService) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	if err := requireTitle(p.Title); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Tech == nil {
		p.Tech = models.TagList{}
	}
	// creation time is the store's; only the legacy import backdates rows
	p.CreatedAt = time.Time{}
	created, err := s.repomanager.Projects(s.db).Create(ctx, p)
	if err != nil {
		return nil, storeErr("create project", err)
	}
	s.log.Info(ctx, "project created", "id", created.ID)
	return created, nil
}

func (s *ContentService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.repomanager.Projects(s.db).GetByID(ctx, id)
	return p, storeErr("get project", err)
}

func (s *ContentService) ListProjects(ctx context.Context) ([]*models.Project, error) {
	list, err := s.repomanager.Projects(s.db).List(ctx)
	return list, storeErr("list projects", err)
}

// PatchProject applies a partial update; absent fields keep their values.
func (s *ContentService) PatchProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	var updated *models.Project
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Projects(tx)
		p, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(p)
		if err := requireTitle(p.Title); err != nil {
			return err
		}
		updated, err = repo.Update(ctx, p)
		return err
	})
	if err != nil {
		return nil, storeErr("patch project", err)
	}
	return updated, nil
}

// ReplaceProject overwrites every editable field, as the edit form does.
func (s *ContentService) ReplaceProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	if err := requireTitle(p.Title); err != nil {
		return nil, err
	}
	updated, err := s.repomanager.Projects(s.db).Update(ctx, p)
	if err != nil {
		return nil, storeErr("update project", err)
	}
	return updated, nil
}

func (s *ContentService) DeleteProject(ctx context.Context, id string) error {
	if err := s.repomanager.Projects(s.db).Delete(ctx, id); err != nil {
		return storeErr("delete project", err)
	}
	s.log.Info(ctx, "project deleted", "id", id)
	return nil
}

func (s *ContentService) CreateBlogPost(ctx context.Context, p *models.BlogPost) (*models.BlogPost, error) {
	if err := requireTitle(p.Title); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Time{}
	created, err := s.repomanager.BlogPosts(s.db).Create(ctx, p)
	if err != nil {
		return nil, storeErr("create blog post", err)
	}
	s.log.Info(ctx, "blog post created", "id", created.ID)
	return created, nil
}

func (s *ContentService) GetBlogPost(ctx context.Context, id string) (*models.BlogPost, error) {
	p, err := s.repomanager.BlogPosts(s.db).GetByID(ctx, id)
	return p, storeErr("get blog post", err)
}

func (s *ContentService) ListBlogPosts(ctx context.Context) ([]*models.BlogPost, error) {
	list, err := s.repomanager.BlogPosts(s.db).List(ctx)
	return list, storeErr("list blog posts", err)
}

func (s *ContentService) PatchBlogPost(ctx context.Context, id string, patch models.BlogPostPatch) (*models.BlogPost, error) {
	var updated *models.BlogPost
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.BlogPosts(tx)
		p, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(p)
		if err := requireTitle(p.Title); err != nil {
			return err
		}
		updated, err = repo.Update(ctx, p)
		return err
	})
	if err != nil {
		return nil, storeErr("patch blog post", err)
	}
	return updated, nil
}

func (s *ContentService) ReplaceBlogPost(ctx context.Context, p *models.BlogPost) (*models.BlogPost, error) {
	if err := requireTitle(p.Title); err != nil {
		return nil, err
	}
	updated, err := s.repomanager.BlogPosts(s.db).Update(ctx, p)
	if err != nil {
		return nil, storeErr("update blog post", err)
	}
	return updated, nil
}

func (s *ContentService) DeleteBlogPost(ctx context.Context, id string) error {
	if err := s.repomanager.BlogPosts(s.db).Delete(ctx, id); err != nil {
		return storeErr("delete blog post", err)
	}
	s.log.Info(ctx, "blog post deleted", "id", id)
	return nil
}
