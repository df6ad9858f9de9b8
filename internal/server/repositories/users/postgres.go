package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
)

const selectUser = `SELECT id, username, email, password_hash, two_fa_secret, two_fa_enabled, email_verified, created_at FROM users`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, email, password_hash, email_verified)
         VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.EmailVerified).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE username = $1`, username)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE lower(email) = lower($1)`, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var secret sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&secret, &user.TwoFAEnabled, &user.EmailVerified, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if secret.Valid {
		user.TwoFASecret = &secret.String
	}
	return user, nil
}

func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET email_verified = TRUE WHERE id = $1`, id)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
}

func (r *PostgresRepository) SetTwoFASecret(ctx context.Context, id int64, secret string) error {
	return r.exec(ctx, `UPDATE users SET two_fa_secret = $2 WHERE id = $1`, id, secret)
}

func (r *PostgresRepository) EnableTwoFA(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET two_fa_enabled = TRUE WHERE id = $1 AND two_fa_secret IS NOT NULL`, id)
}

func (r *PostgresRepository) DisableTwoFA(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET two_fa_enabled = FALSE, two_fa_secret = NULL WHERE id = $1`, id)
}

// exec runs a single-row UPDATE and maps "no row touched" to ErrorNotFound.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
