package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/config"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
	"github.com/dmitrijs2005/sitekeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

const (
	liveToken    = "live-token"
	pendingToken = "pending-token"
)

// fakeAuth knows two sessions: liveToken (authenticated, verified) and
// pendingToken (waiting for a TOTP code). Hooks override single calls.
type fakeAuth struct {
	user *models.User

	register      func(services.RegisterInput) error
	verify        func(string) (services.VerifyResult, error)
	login         func(string, string) (*services.LoginResult, error)
	completeTwoFA func(string, string) (*services.LoginResult, error)
	confirmTwoFA  func(string) error
	resetPassword func(string, string, string) error
	forgotCalls   []string
	loggedOut     []string
	disabledTwoFA bool
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{user: &models.User{ID: 1, Username: "alice", Email: "alice@example.com", EmailVerified: true}}
}

func (f *fakeAuth) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	if f.register != nil {
		if err := f.register(in); err != nil {
			return nil, err
		}
	}
	return &models.User{Username: in.Username, Email: in.Email}, nil
}

func (f *fakeAuth) VerifyEmail(_ context.Context, token string) (services.VerifyResult, error) {
	if f.verify != nil {
		return f.verify(token)
	}
	return services.VerifyResultVerified, nil
}

func (f *fakeAuth) ResendVerification(context.Context, string) error { return nil }

func (f *fakeAuth) Login(_ context.Context, identifier, password string) (*services.LoginResult, error) {
	if f.login != nil {
		return f.login(identifier, password)
	}
	return &services.LoginResult{
		Identity: services.Identity{User: f.user, Session: &models.Session{ID: "s1"}},
		Token:    liveToken,
	}, nil
}

func (f *fakeAuth) CompleteTwoFactor(_ context.Context, token, code string) (*services.LoginResult, error) {
	if f.completeTwoFA != nil {
		return f.completeTwoFA(token, code)
	}
	return &services.LoginResult{
		Identity: services.Identity{User: f.user, Session: &models.Session{ID: "s2"}},
		Token:    liveToken,
	}, nil
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*services.Identity, error) {
	switch token {
	case liveToken:
		return &services.Identity{User: f.user, Session: &models.Session{ID: "s1", UserID: f.user.ID}}, nil
	case pendingToken:
		return &services.Identity{User: f.user, Session: &models.Session{ID: "p1", UserID: f.user.ID, TwoFAPending: true}}, nil
	default:
		return nil, common.ErrorUnauthorized
	}
}

func (f *fakeAuth) BeginTwoFASetup(context.Context, int64) (*services.TwoFASetup, error) {
	return &services.TwoFASetup{Secret: "JBSWY3DPEHPK3PXP", URI: "otpauth://totp/sitekeeper:alice@example.com?secret=JBSWY3DPEHPK3PXP"}, nil
}

func (f *fakeAuth) ConfirmTwoFASetup(_ context.Context, _ int64, code string) error {
	if f.confirmTwoFA != nil {
		return f.confirmTwoFA(code)
	}
	return nil
}

func (f *fakeAuth) DisableTwoFA(context.Context, int64) error {
	f.disabledTwoFA = true
	return nil
}

func (f *fakeAuth) ForgotPassword(_ context.Context, email string) error {
	f.forgotCalls = append(f.forgotCalls, email)
	return nil
}

func (f *fakeAuth) ResetPassword(_ context.Context, token, password, confirm string) error {
	if f.resetPassword != nil {
		return f.resetPassword(token, password, confirm)
	}
	return nil
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

// fakeContent keeps entries in insertion order; listing returns newest first.
type fakeContent struct {
	mu       sync.Mutex
	projects []*models.Project
	posts    []*models.BlogPost
	failAll  bool
}

func (f *fakeContent) All(ctx context.Context) (*services.Content, error) {
	if f.failAll {
		return nil, errBoom
	}
	p, _ := f.ListProjects(ctx)
	b, _ := f.ListBlogPosts(ctx)
	return &services.Content{Projects: p, BlogPosts: b}, nil
}

func (f *fakeContent) CreateProject(_ context.Context, p *models.Project) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(p.Title) == "" {
		return nil, common.NewValidationError("title", "is required")
	}
	if p.ID == "" {
		p.ID = "generated"
	}
	f.projects = append(f.projects, p)
	return p, nil
}

func (f *fakeContent) findProject(id string) (int, *models.Project) {
	for i, p := range f.projects {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func (f *fakeContent) GetProject(_ context.Context, id string) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, p := f.findProject(id); p != nil {
		return p, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeContent) ListProjects(context.Context) ([]*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Project{}
	for i := len(f.projects) - 1; i >= 0; i-- {
		out = append(out, f.projects[i])
	}
	return out, nil
}

func (f *fakeContent) PatchProject(_ context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, p := f.findProject(id)
	if p == nil {
		return nil, common.ErrorNotFound
	}
	patch.Apply(p)
	return p, nil
}

func (f *fakeContent) ReplaceProject(_ context.Context, p *models.Project) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := f.findProject(p.ID)
	if i < 0 {
		return nil, common.ErrorNotFound
	}
	f.projects[i] = p
	return p, nil
}

func (f *fakeContent) DeleteProject(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := f.findProject(id)
	if i < 0 {
		return common.ErrorNotFound
	}
	f.projects = append(f.projects[:i], f.projects[i+1:]...)
	return nil
}

func (f *fakeContent) CreateBlogPost(_ context.Context, p *models.BlogPost) (*models.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(p.Title) == "" {
		return nil, common.NewValidationError("title", "is required")
	}
	if p.ID == "" {
		p.ID = "generated"
	}
	f.posts = append(f.posts, p)
	return p, nil
}

func (f *fakeContent) findPost(id string) (int, *models.BlogPost) {
	for i, p := range f.posts {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func (f *fakeContent) GetBlogPost(_ context.Context, id string) (*models.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, p := f.findPost(id); p != nil {
		return p, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeContent) ListBlogPosts(context.Context) ([]*models.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.BlogPost{}
	for i := len(f.posts) - 1; i >= 0; i-- {
		out = append(out, f.posts[i])
	}
	return out, nil
}

func (f *fakeContent) PatchBlogPost(_ context.Context, id string, patch models.BlogPostPatch) (*models.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, p := f.findPost(id)
	if p == nil {
		return nil, common.ErrorNotFound
	}
	patch.Apply(p)
	return p, nil
}

func (f *fakeContent) ReplaceBlogPost(_ context.Context, p *models.BlogPost) (*models.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := f.findPost(p.ID)
	if i < 0 {
		return nil, common.ErrorNotFound
	}
	f.posts[i] = p
	return p, nil
}

func (f *fakeContent) DeleteBlogPost(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := f.findPost(id)
	if i < 0 {
		return common.ErrorNotFound
	}
	f.posts = append(f.posts[:i], f.posts[i+1:]...)
	return nil
}

type fakeContact struct {
	sent []services.ContactInput
	err  error
}

func (f *fakeContact) Send(_ context.Context, in services.ContactInput) error {
	if in.Name == "" || in.Email == "" || in.Message == "" {
		return common.NewValidationError("", services.MissingFieldsMessage)
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, in)
	return nil
}

type fakeMedia struct{}

func (fakeMedia) PresignUpload(_ context.Context, filename string) (*services.PresignedUpload, error) {
	if !strings.HasSuffix(filename, ".png") {
		return nil, common.NewValidationError("filename", "unsupported file type")
	}
	return &services.PresignedUpload{Key: "media/2026/10/14/x.png", UploadURL: "http://s3/upload", PublicURL: "http://s3/media/x.png", ContentType: "image/png"}, nil
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

type harness struct {
	server  *Server
	auth    *fakeAuth
	content *fakeContent
	contact *fakeContact
	limiter *fakeLimiter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.LoadDefaults()

	h := &harness{
		auth:    newFakeAuth(),
		content: &fakeContent{},
		contact: &fakeContact{},
		limiter: &fakeLimiter{allow: true},
	}
	srv, err := NewServer(cfg, Deps{
		Auth:    h.auth,
		Content: h.content,
		Contact: h.contact,
		Media:   fakeMedia{},
		Limiter: h.limiter,
		DB:      fakePinger{},
	}, logging.Nop{})
	require.NoError(t, err)
	h.server = srv
	return h
}

// do sends req with an optional session cookie.
func (h *harness) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: token})
	}
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)
	return w
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func cookieFrom(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// flashFrom decodes the flash set on a redirect response with the default
// signing key.
func flashFrom(t *testing.T, w *httptest.ResponseRecorder) *Flash {
	t.Helper()
	c := cookieFrom(w, common.FlashCookieName)
	require.NotNil(t, c, "no flash cookie")

	cfg := &config.Config{}
	cfg.LoadDefaults()

	var got *Flash
	r := gin.New()
	r.Use(flashSessions(cfg))
	r.GET("/", func(c *gin.Context) { got = popFlash(c) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	r.ServeHTTP(httptest.NewRecorder(), req)
	return got
}
