package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/server/mail"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/blogposts"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/projects"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// store is an in-memory stand-in for the database shared by all fake repos.
type store struct {
	mu sync.Mutex

	nextUserID int64
	users      map[int64]*models.User
	sessions   map[string]*models.Session
	projects   map[string]*models.Project
	posts      map[string]*models.BlogPost

	failOn map[string]error
}

func newStore() *store {
	return &store{
		users:    map[int64]*models.User{},
		sessions: map[string]*models.Session{},
		projects: map[string]*models.Project{},
		posts:    map[string]*models.BlogPost{},
		failOn:   map[string]error{},
	}
}

func (s *store) fail(op string) error { return s.failOn[op] }

// --- users ---

type fakeUsers struct{ s *store }

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.TwoFASecret != nil {
		v := *u.TwoFASecret
		c.TwoFASecret = &v
	}
	return &c
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("users.Create"); err != nil {
		return nil, err
	}
	for _, existing := range f.s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return nil, common.ErrConflict
		}
	}
	f.s.nextUserID++
	u.ID = f.s.nextUserID
	u.CreatedAt = time.Now()
	f.s.users[u.ID] = cloneUser(u)
	return cloneUser(u), nil
}

func (f *fakeUsers) find(match func(*models.User) bool) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("users.Get"); err != nil {
		return nil, err
	}
	for _, u := range f.s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Username == username })
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUsers) update(id int64, fn func(*models.User) bool) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("users.Update"); err != nil {
		return err
	}
	u, ok := f.s.users[id]
	if !ok || !fn(u) {
		return common.ErrorNotFound
	}
	return nil
}

func (f *fakeUsers) MarkEmailVerified(_ context.Context, id int64) error {
	return f.update(id, func(u *models.User) bool { u.EmailVerified = true; return true })
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	return f.update(id, func(u *models.User) bool { u.PasswordHash = hash; return true })
}

func (f *fakeUsers) SetTwoFASecret(_ context.Context, id int64, secret string) error {
	return f.update(id, func(u *models.User) bool { u.TwoFASecret = &secret; return true })
}

func (f *fakeUsers) EnableTwoFA(_ context.Context, id int64) error {
	return f.update(id, func(u *models.User) bool {
		if u.TwoFASecret == nil {
			return false
		}
		u.TwoFAEnabled = true
		return true
	})
}

func (f *fakeUsers) DisableTwoFA(_ context.Context, id int64) error {
	return f.update(id, func(u *models.User) bool { u.TwoFAEnabled = false; u.TwoFASecret = nil; return true })
}

// --- sessions ---

type fakeSessions struct{ s *store }

func (f *fakeSessions) Create(_ context.Context, sess *models.Session) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("sessions.Create"); err != nil {
		return err
	}
	sess.CreatedAt = time.Now()
	c := *sess
	f.s.sessions[sess.ID] = &c
	return nil
}

func (f *fakeSessions) GetByTokenHash(_ context.Context, hash string) (*models.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, sess := range f.s.sessions {
		if sess.TokenHash == hash {
			c := *sess
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("sessions.Delete"); err != nil {
		return err
	}
	delete(f.s.sessions, id)
	return nil
}

func (f *fakeSessions) DeleteByUserID(_ context.Context, userID int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for id, sess := range f.s.sessions {
		if sess.UserID == userID {
			delete(f.s.sessions, id)
		}
	}
	return nil
}

// --- projects ---

type fakeProjects struct{ s *store }

func (f *fakeProjects) Create(_ context.Context, p *models.Project) (*models.Project, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("projects.Create"); err != nil {
		return nil, err
	}
	if _, ok := f.s.projects[p.ID]; ok {
		return nil, common.ErrConflict
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	c := *p
	f.s.projects[p.ID] = &c
	return p, nil
}

func (f *fakeProjects) GetByID(_ context.Context, id string) (*models.Project, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.projects[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakeProjects) List(_ context.Context) ([]*models.Project, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("projects.List"); err != nil {
		return nil, err
	}
	out := make([]*models.Project, 0, len(f.s.projects))
	for _, p := range f.s.projects {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeProjects) Update(_ context.Context, p *models.Project) (*models.Project, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	old, ok := f.s.projects[p.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	p.CreatedAt = old.CreatedAt
	c := *p
	f.s.projects[p.ID] = &c
	return p, nil
}

func (f *fakeProjects) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.projects[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.projects, id)
	return nil
}

func (f *fakeProjects) Exists(_ context.Context, id string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	_, ok := f.s.projects[id]
	return ok, nil
}

// --- blog posts ---

type fakePosts struct{ s *store }

func (f *fakePosts) Create(_ context.Context, p *models.BlogPost) (*models.BlogPost, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("posts.Create"); err != nil {
		return nil, err
	}
	if _, ok := f.s.posts[p.ID]; ok {
		return nil, common.ErrConflict
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	c := *p
	f.s.posts[p.ID] = &c
	return p, nil
}

func (f *fakePosts) GetByID(_ context.Context, id string) (*models.BlogPost, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakePosts) List(_ context.Context) ([]*models.BlogPost, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]*models.BlogPost, 0, len(f.s.posts))
	for _, p := range f.s.posts {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakePosts) Update(_ context.Context, p *models.BlogPost) (*models.BlogPost, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	old, ok := f.s.posts[p.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	p.CreatedAt = old.CreatedAt
	c := *p
	f.s.posts[p.ID] = &c
	return p, nil
}

func (f *fakePosts) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.posts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.posts, id)
	return nil
}

func (f *fakePosts) Exists(_ context.Context, id string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	_, ok := f.s.posts[id]
	return ok, nil
}

// --- manager ---

type fakeRepoManager struct{ s *store }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return &fakeUsers{m.s} }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository       { return &fakeSessions{m.s} }
func (m *fakeRepoManager) Projects(dbx.DBTX) projects.Repository       { return &fakeProjects{m.s} }
func (m *fakeRepoManager) BlogPosts(dbx.DBTX) blogposts.Repository     { return &fakePosts{m.s} }

// --- mailer ---

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last() (mail.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mail.Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}

var errBoom = errors.New("boom")
