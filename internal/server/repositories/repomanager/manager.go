package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/blogposts"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/projects"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Projects(db dbx.DBTX) projects.Repository
	BlogPosts(db dbx.DBTX) blogposts.Repository
}
