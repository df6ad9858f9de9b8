package users

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var userColumns = []string{"id", "username", "email", "password_hash", "two_fa_secret", "two_fa_enabled", "email_verified", "created_at"}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*password_hash,\s*email_verified\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs("alice", "alice@example.com", "hash", false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))

	u := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 || got.Username != "alice" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_UniqueViolationIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice", "alice@example.com", "hash", false).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	_, err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Username: "alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByUsername_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(userColumns).
		AddRow(int64(1), "alice", "alice@example.com", "hash", "SECRET", true, true, time.Now())
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`).
		WithArgs("alice").
		WillReturnRows(rows)

	got, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername error: %v", err)
	}
	if got.ID != 1 || !got.TwoFAEnabled || !got.EmailVerified || !got.HasTwoFASecret() || *got.TwoFASecret != "SECRET" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByEmail_NullSecret(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(userColumns).
		AddRow(int64(2), "bob", "bob@example.com", "hash", nil, false, false, time.Now())
	mock.ExpectQuery(`(?s)WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)$`).
		WithArgs("Bob@Example.com").
		WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "Bob@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.TwoFASecret != nil || got.HasTwoFASecret() {
		t.Fatalf("expected nil secret, got %+v", got.TwoFASecret)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE\s+id\s*=\s*\$1$`).
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 7)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpdates_RowsAffected(t *testing.T) {
	tests := []struct {
		name  string
		query string
		call  func(r *PostgresRepository) error
		args  []any
	}{
		{
			name:  "mark verified",
			query: `UPDATE users SET email_verified = TRUE WHERE id = \$1`,
			call:  func(r *PostgresRepository) error { return r.MarkEmailVerified(context.Background(), 1) },
			args:  []any{int64(1)},
		},
		{
			name:  "update password",
			query: `UPDATE users SET password_hash = \$2 WHERE id = \$1`,
			call:  func(r *PostgresRepository) error { return r.UpdatePassword(context.Background(), 1, "h2") },
			args:  []any{int64(1), "h2"},
		},
		{
			name:  "set secret",
			query: `UPDATE users SET two_fa_secret = \$2 WHERE id = \$1`,
			call:  func(r *PostgresRepository) error { return r.SetTwoFASecret(context.Background(), 1, "S") },
			args:  []any{int64(1), "S"},
		},
		{
			name:  "enable requires secret",
			query: `UPDATE users SET two_fa_enabled = TRUE WHERE id = \$1 AND two_fa_secret IS NOT NULL`,
			call:  func(r *PostgresRepository) error { return r.EnableTwoFA(context.Background(), 1) },
			args:  []any{int64(1)},
		},
		{
			name:  "disable clears secret",
			query: `UPDATE users SET two_fa_enabled = FALSE, two_fa_secret = NULL WHERE id = \$1`,
			call:  func(r *PostgresRepository) error { return r.DisableTwoFA(context.Background(), 1) },
			args:  []any{int64(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			args := make([]driver.Value, 0, len(tt.args))
			for _, a := range tt.args {
				args = append(args, a)
			}

			mock.ExpectExec(tt.query).WithArgs(args...).WillReturnResult(sqlmock.NewResult(0, 1))
			if err := tt.call(repo); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			mock.ExpectExec(tt.query).WithArgs(args...).WillReturnResult(sqlmock.NewResult(0, 0))
			if err := tt.call(repo); !errors.Is(err, common.ErrorNotFound) {
				t.Fatalf("want ErrorNotFound on 0 rows, got %v", err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}
