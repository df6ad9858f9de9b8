package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// LegacyDocument is the flat JSON file the site used before the database.
type LegacyDocument struct {
	Projects  []*models.Project  `json:"projects"`
	BlogPosts []*models.BlogPost `json:"blogPosts"`
}

// ImportReport counts what one import run did.
type ImportReport struct {
	ProjectsInserted  int
	ProjectsSkipped   int
	BlogPostsInserted int
	BlogPostsSkipped  int
}

func (r ImportReport) Inserted() int { return r.ProjectsInserted + r.BlogPostsInserted }

// ParseLegacy decodes a legacy document. Missing ids are backfilled with
// UUIDs so that every record can be matched on later runs.
func ParseLegacy(r io.Reader) (*LegacyDocument, error) {
	doc := &LegacyDocument{}
	if err := json.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode legacy document: %w", err)
	}
	for _, p := range doc.Projects {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Tech == nil {
			p.Tech = models.TagList{}
		}
	}
	for _, p := range doc.BlogPosts {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
	}
	return doc, nil
}

// LegacyImporter copies a legacy document into the database. It only ever
// inserts; records whose id already exists are skipped.
type LegacyImporter struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	now         func() time.Time
}

func NewLegacyImporter(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *LegacyImporter {
	return &LegacyImporter{db: db, repomanager: m, log: log.With("module", "legacy"), now: time.Now}
}

// ImportFile imports path if it exists. A missing file is not an error.
func (s *LegacyImporter) ImportFile(ctx context.Context, path string) (*ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Info(ctx, "no legacy data file", "path", path)
			return &ImportReport{}, nil
		}
		return nil, err
	}
	defer f.Close()

	doc, err := ParseLegacy(f)
	if err != nil {
		return nil, err
	}
	report, err := s.Import(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "legacy import finished", "path", path,
		"projects", report.ProjectsInserted, "projects_skipped", report.ProjectsSkipped,
		"blog_posts", report.BlogPostsInserted, "blog_posts_skipped", report.BlogPostsSkipped)
	return report, nil
}

// Import runs the whole document in one transaction. Inserted rows get
// created_at values that increase in file order, one millisecond apart, so
// the newest-first listing shows the last file entry first.
func (s *LegacyImporter) Import(ctx context.Context, doc *LegacyDocument) (*ImportReport, error) {
	report := &ImportReport{}
	batchStart := s.now().UTC().Truncate(time.Millisecond)
	stamp := func(i int) time.Time { return batchStart.Add(time.Duration(i) * time.Millisecond) }

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		projects := s.repomanager.Projects(tx)
		for i, p := range doc.Projects {
			exists, err := projects.Exists(ctx, p.ID)
			if err != nil {
				return err
			}
			if exists {
				report.ProjectsSkipped++
				continue
			}
			row := *p
			row.CreatedAt = stamp(i)
			if _, err := projects.Create(ctx, &row); err != nil {
				return fmt.Errorf("project %s: %w", p.ID, err)
			}
			report.ProjectsInserted++
		}

		posts := s.repomanager.BlogPosts(tx)
		for i, p := range doc.BlogPosts {
			exists, err := posts.Exists(ctx, p.ID)
			if err != nil {
				return err
			}
			if exists {
				report.BlogPostsSkipped++
				continue
			}
			row := *p
			row.CreatedAt = stamp(i)
			if _, err := posts.Create(ctx, &row); err != nil {
				return fmt.Errorf("blog post %s: %w", p.ID, err)
			}
			report.BlogPostsInserted++
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("legacy import", err)
	}
	return report, nil
}
