// Package web is the HTTP surface of sitekeeper: HTML dashboard and auth
// pages, the public JSON endpoints and the authenticated content API.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/config"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
	"github.com/dmitrijs2005/sitekeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/sitekeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) (services.VerifyResult, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, identifier, password string) (*services.LoginResult, error)
	CompleteTwoFactor(ctx context.Context, token, code string) (*services.LoginResult, error)
	Authenticate(ctx context.Context, token string) (*services.Identity, error)
	BeginTwoFASetup(ctx context.Context, userID int64) (*services.TwoFASetup, error)
	ConfirmTwoFASetup(ctx context.Context, userID int64, code string) error
	DisableTwoFA(ctx context.Context, userID int64) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, confirm string) error
	Logout(ctx context.Context, token string) error
}

type ContentService interface {
	All(ctx context.Context) (*services.Content, error)

	CreateProject(ctx context.Context, p *models.Project) (*models.Project, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]*models.Project, error)
	PatchProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error)
	ReplaceProject(ctx context.Context, p *models.Project) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) error

	CreateBlogPost(ctx context.Context, p *models.BlogPost) (*models.BlogPost, error)
	GetBlogPost(ctx context.Context, id string) (*models.BlogPost, error)
	ListBlogPosts(ctx context.Context) ([]*models.BlogPost, error)
	PatchBlogPost(ctx context.Context, id string, patch models.BlogPostPatch) (*models.BlogPost, error)
	ReplaceBlogPost(ctx context.Context, p *models.BlogPost) (*models.BlogPost, error)
	DeleteBlogPost(ctx context.Context, id string) error
}

type ContactService interface {
	Send(ctx context.Context, in services.ContactInput) error
}

type MediaService interface {
	PresignUpload(ctx context.Context, filename string) (*services.PresignedUpload, error)
}

// Pinger reports database liveness; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Auth    AuthService
	Content ContentService
	Contact ContactService
	Media   MediaService
	Limiter ratelimit.Limiter
	DB      Pinger
}

type Server struct {
	address string
	deps    Deps
	config  *config.Config
	logger  logging.Logger
	engine  *gin.Engine
}

func NewServer(cfg *config.Config, deps Deps, l logging.Logger) (*Server, error) {
	s := &Server{
		address: cfg.HTTPAddr,
		deps:    deps,
		config:  cfg,
		logger:  l.With("module", "http_server"),
	}
	engine, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
