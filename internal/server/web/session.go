package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

const identityKey = "sitekeeper.identity"

func identityFrom(c *gin.Context) *services.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*services.Identity)
	return id
}

func sessionToken(c *gin.Context) string {
	token, err := c.Cookie(common.SessionCookieName)
	if err != nil {
		return ""
	}
	return token
}

// loadIdentity resolves the session cookie once per request. A stale
// cookie is cleared; the request continues as anonymous.
func (s *Server) loadIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.Next()
			return
		}
		id, err := s.deps.Auth.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(identityKey, id)
		case errors.Is(err, common.ErrorUnauthorized):
			s.clearSessionCookie(c)
		default:
			s.logger.Error(c.Request.Context(), "session lookup failed", "error", err)
		}
		c.Next()
	}
}

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.config.SessionLifetime.Seconds()),
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
