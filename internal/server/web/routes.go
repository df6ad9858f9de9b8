package web

import (
	"html/template"
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}
	if len(s.config.CORSAllowedOrigins) == 0 || slices.Contains(s.config.CORSAllowedOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.config.CORSAllowedOrigins
	}
	return cors.New(cfg)
}

func (s *Server) routes() (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	r.Use(gin.Recovery(), s.requestLogger(), flashSessions(s.config), s.loadIdentity())

	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/dashboard") })
	r.GET("/healthz", s.healthz)

	public := r.Group("/", s.corsMiddleware())
	{
		public.GET("/data.json", s.content)
		public.GET("/api/content", s.content)
		public.POST("/api/contact", s.contact)
		preflight := func(c *gin.Context) { c.Status(http.StatusNoContent) }
		public.OPTIONS("/data.json", preflight)
		public.OPTIONS("/api/content", preflight)
		public.OPTIONS("/api/contact", preflight)
	}

	r.GET("/register", s.registerForm)
	r.POST("/register", s.register)
	r.GET("/verify-email", s.verifyEmail)
	r.GET("/resend-verification", s.resendForm)
	r.POST("/resend-verification", s.resend)

	r.GET("/login", s.loginForm)
	r.POST("/login", Require(s.RateLimited("login")), s.login)
	r.GET("/login/2fa", Require(TwoFAPendingRequired), s.twoFactorForm)
	r.POST("/login/2fa", Require(TwoFAPendingRequired, s.RateLimited("2fa")), s.twoFactor)
	r.GET("/logout", s.logout)
	r.POST("/logout", s.logout)

	r.GET("/forgot-password", s.forgotForm)
	r.POST("/forgot-password", s.forgot)
	r.GET("/reset-password", s.resetForm)
	r.POST("/reset-password", s.reset)

	secured := r.Group("/", Require(LoginRequired))
	{
		twofa := secured.Group("/2fa", Require(EmailVerifiedRequired))
		twofa.GET("/setup", s.twoFASetupForm)
		twofa.POST("/setup", s.twoFASetup)
		twofa.GET("/qr.png", s.twoFAQR)
		twofa.POST("/disable", s.twoFADisable)

		secured.GET("/dashboard", s.dashboard)
		secured.GET("/add/:type", s.addForm)
		secured.POST("/add/:type", s.add)
		secured.GET("/edit/:type/:id", s.editForm)
		secured.POST("/edit/:type/:id", s.edit)
		secured.POST("/delete/:type/:id", s.deleteEntry)

		api := secured.Group("/api")
		s.projectsAPI().register(api.Group("/projects"))
		s.blogPostsAPI().register(api.Group("/blog-posts"))
		api.POST("/media/presign", s.presign)
	}

	return r, nil
}
