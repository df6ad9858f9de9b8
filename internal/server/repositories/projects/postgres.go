package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
)

const selectProject = `SELECT id, title, description, tech, image, cover, source, details, created_at FROM projects`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*models.Project, error) {
	p := &models.Project{}
	var tech string
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &tech, &p.Image, &p.Cover, &p.Source, &p.Details, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Tech = models.SplitTags(tech)
	return p, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	query := `
		INSERT INTO projects (id, title, description, tech, image, cover, source, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()))
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Title, p.Description, p.Tech.String(), p.Image, p.Cover, p.Source, p.Details,
		nullTime(p.CreatedAt)).Scan(&p.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, selectProject+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx, selectProject+` ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Project) (*models.Project, error) {
	query := `
		UPDATE projects
		SET title = $2, description = $3, tech = $4, image = $5, cover = $6, source = $7, details = $8
		WHERE id = $1
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Title, p.Description, p.Tech.String(), p.Image, p.Cover, p.Source, p.Details).Scan(&p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}
