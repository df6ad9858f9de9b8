package blogposts

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

const selectPost = `SELECT id, title, excerpt, date, category, image, cover, read_time, content, created_at FROM blog_posts`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*models.BlogPost, error) {
	p := &models.BlogPost{}
	err := row.Scan(&p.ID, &p.Title, &p.Excerpt, &p.Date, &p.Category, &p.Image, &p.Cover, &p.ReadTime, &p.Content, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.BlogPost) (*models.BlogPost, error) {
	query := `
		INSERT INTO blog_posts (id, title, excerpt, date, category, image, cover, read_time, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()))
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Title, p.Excerpt, p.Date, p.Category, p.Image, p.Cover, p.ReadTime, p.Content,
		nullTime(p.CreatedAt)).Scan(&p.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, selectPost+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.BlogPost, error) {
	rows, err := r.db.QueryContext(ctx, selectPost+` ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.BlogPost, 0)
	for rows.Next() {
		p, err := scanPost(rows)
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

func (r *PostgresRepository) Update(ctx context.Context, p *models.BlogPost) (*models.BlogPost, error) {
	query := `
		UPDATE blog_posts
		SET title = $2, excerpt = $3, date = $4, category = $5, image = $6, cover = $7, read_time = $8, content = $9
		WHERE id = $1
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Title, p.Excerpt, p.Date, p.Category, p.Image, p.Cover, p.ReadTime, p.Content).Scan(&p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
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
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM blog_posts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}
