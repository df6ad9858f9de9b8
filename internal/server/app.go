// Package server wires the sitekeeper server together: database and
// migrations, the legacy data import, services and the HTTP server. It also
// handles graceful shutdown on termination signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/config"
	"github.com/dmitrijs2005/sitekeeper/internal/server/mail"
	"github.com/dmitrijs2005/sitekeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sitekeeper/internal/server/services"
	"github.com/dmitrijs2005/sitekeeper/internal/server/web"
	"github.com/gin-gonic/gin"
)

const dbPingTimeout = 5 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	limiter ratelimit.Limiter
	web     *web.Server
}

// OpenDatabase connects to Postgres and applies the embedded migrations.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}
	return db, m, nil
}

func newLimiter(cfg *config.Config) ratelimit.Limiter {
	if cfg.RedisAddr != "" {
		rc := ratelimit.OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		return ratelimit.NewRedisLimiter(rc, cfg.LoginRateLimit, cfg.LoginRateWindow)
	}
	return ratelimit.NewMemoryLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogLevel, c.LogFile)

	if c.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, m, err := OpenDatabase(ctx, c)
	if err != nil {
		return nil, err
	}

	// A failed import is logged; the site still serves what is in the store.
	report, err := services.NewLegacyImporter(db, m, logger).ImportFile(ctx, c.LegacyDataFile)
	if err != nil {
		logger.Error(ctx, "legacy import failed", "file", c.LegacyDataFile, "error", err)
	} else if report.Inserted() > 0 {
		logger.Info(ctx, "legacy import finished",
			"projects", report.ProjectsInserted, "blog_posts", report.BlogPostsInserted,
			"skipped", report.ProjectsSkipped+report.BlogPostsSkipped)
	}

	mailer := mail.New(c, logger)
	limiter := newLimiter(c)

	srv, err := web.NewServer(c, web.Deps{
		Auth:    services.NewAuthService(db, m, mailer, c, logger),
		Content: services.NewContentService(db, m, logger),
		Contact: services.NewContactService(mailer, c.ContactRecipient, logger),
		Media:   services.NewMediaService(c),
		Limiter: limiter,
		DB:      db,
	}, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("http server init error: %w", err)
	}

	return &App{config: c, logger: logger, db: db, limiter: limiter, web: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.web.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if rl, ok := app.limiter.(*ratelimit.RedisLimiter); ok {
		if err := rl.Close(); err != nil {
			app.logger.Error(ctx, "redis close", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
