package admin

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/flagx"
	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/netx"
	"github.com/dmitrijs2005/sitekeeper/internal/server"
	"github.com/dmitrijs2005/sitekeeper/internal/server/config"
	"github.com/dmitrijs2005/sitekeeper/internal/server/mail"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
	"github.com/dmitrijs2005/sitekeeper/internal/server/services"
)

const usage = `usage: sitekeeper-admin <command> [flags]

commands:
  create-user    [-username name] [-email addr]   create a verified operator account
  import-legacy  [-file data.json]                import the legacy data file
  upload-media   -file image.png                  upload an image and print its public URL
`

var ErrUsage = errors.New("invalid usage")

type operatorCreator interface {
	CreateOperator(ctx context.Context, in services.RegisterInput) (*models.User, error)
}

type legacyImporter interface {
	ImportFile(ctx context.Context, path string) (*services.ImportReport, error)
}

type mediaPresigner interface {
	PresignUpload(ctx context.Context, filename string) (*services.PresignedUpload, error)
}

type App struct {
	config   *config.Config
	in       *bufio.Reader
	out      io.Writer
	logger   logging.Logger
	auth     operatorCreator
	importer legacyImporter
	media    mediaPresigner
	upload   func(ctx context.Context, url, contentType string, body io.Reader, size int64) error
	db       *sql.DB
}

// NewApp connects to the database and builds the services the commands use.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.New(cfg.LogLevel, cfg.LogFile)

	db, m, err := server.OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	return &App{
		config:   cfg,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		logger:   logger,
		auth:     services.NewAuthService(db, m, mail.NewLogMailer(logger), cfg, logger),
		importer: services.NewLegacyImporter(db, m, logger),
		media:    services.NewMediaService(cfg),
		upload: func(ctx context.Context, url, contentType string, body io.Reader, size int64) error {
			return netx.UploadToPresignedURL(ctx, client, url, contentType, body, size)
		},
		db: db,
	}, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Run dispatches args[0]. Command flags are picked out of args with
// flagx.FilterArgs so the config layers' flags may appear alongside them.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	switch args[0] {
	case "create-user":
		return a.createUser(ctx, args[1:])
	case "import-legacy":
		return a.importLegacy(ctx, args[1:])
	case "upload-media":
		return a.uploadMedia(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
}

func commandFlags(name string, args []string, allowed []string, define func(fs *flag.FlagSet)) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	define(fs)
	if err := fs.Parse(flagx.FilterArgs(args, allowed)); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

func (a *App) createUser(ctx context.Context, args []string) error {
	var username, email string
	err := commandFlags("create-user", args, []string{"-username", "-email"}, func(fs *flag.FlagSet) {
		fs.StringVar(&username, "username", "", "operator username")
		fs.StringVar(&email, "email", "", "operator email")
	})
	if err != nil {
		return err
	}

	if username == "" {
		if username, err = GetSimpleText(a.in, "Username", a.out); err != nil {
			return err
		}
	}
	if email == "" {
		if email, err = GetSimpleText(a.in, "Email", a.out); err != nil {
			return err
		}
	}
	password, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}
	confirm, err := GetPassword("Confirm password", a.out)
	if err != nil {
		return err
	}

	user, err := a.auth.CreateOperator(ctx, services.RegisterInput{
		Username:        username,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created verified user %s (id %d)\n", user.Username, user.ID)
	return nil
}

func (a *App) importLegacy(ctx context.Context, args []string) error {
	path := a.config.LegacyDataFile
	err := commandFlags("import-legacy", args, []string{"-file"}, func(fs *flag.FlagSet) {
		fs.StringVar(&path, "file", path, "legacy data file")
	})
	if err != nil {
		return err
	}

	report, err := a.importer.ImportFile(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Projects: %d inserted, %d skipped\nBlog posts: %d inserted, %d skipped\n",
		report.ProjectsInserted, report.ProjectsSkipped, report.BlogPostsInserted, report.BlogPostsSkipped)
	return nil
}

func (a *App) uploadMedia(ctx context.Context, args []string) error {
	var path string
	err := commandFlags("upload-media", args, []string{"-file"}, func(fs *flag.FlagSet) {
		fs.StringVar(&path, "file", "", "image to upload")
	})
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: -file is required", ErrUsage)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	upload, err := a.media.PresignUpload(ctx, filepath.Base(path))
	if err != nil {
		return err
	}
	if err := a.upload(ctx, upload.UploadURL, upload.ContentType, f, info.Size()); err != nil {
		return err
	}
	a.logger.Info(ctx, "media uploaded", "key", upload.Key, "bytes", info.Size())
	fmt.Fprintln(a.out, upload.PublicURL)
	return nil
}
