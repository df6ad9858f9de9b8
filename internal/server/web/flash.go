package web

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/server/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashDanger  = "danger"
)

const flashMaxAge = 60

type Flash struct {
	Kind    string
	Message string
}

// newFlashStore returns the signed cookie store that carries flashes
// between a redirect and the page it lands on.
func newFlashStore(cfg *config.Config) sessions.Store {
	store := cookie.NewStore([]byte(cfg.SecretKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   flashMaxAge,
		Secure:   cfg.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

func flashSessions(cfg *config.Config) gin.HandlerFunc {
	return sessions.Sessions(common.FlashCookieName, newFlashStore(cfg))
}

// setFlash stores one message for the next rendered page. It must run
// before the response is written.
func setFlash(c *gin.Context, kind, message string) {
	session := sessions.Default(c)
	session.AddFlash(kind + "\n" + message)
	// a failed save only loses the notice
	_ = session.Save()
}

// popFlash returns and clears the pending message, if any.
func popFlash(c *gin.Context) *Flash {
	session := sessions.Default(c)
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	_ = session.Save()

	raw, ok := flashes[len(flashes)-1].(string)
	if !ok {
		return nil
	}
	kind, message, ok := strings.Cut(raw, "\n")
	if !ok {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}
