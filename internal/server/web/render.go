package web

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

// render executes a page template with the pending flash and the current
// identity added to data.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Flash"] = popFlash(c)
	if id := identityFrom(c); id.Authenticated() {
		data["User"] = id.User
	}
	c.HTML(status, name, data)
}

func renderMessage(c *gin.Context, status int, title, message string) {
	render(c, status, "message.html", gin.H{"Title": title, "Message": message})
}

// redirectWithFlash is the post/redirect/get tail of most form handlers.
func redirectWithFlash(c *gin.Context, kind, message, location string) {
	setFlash(c, kind, message)
	c.Redirect(http.StatusSeeOther, location)
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	renderMessage(c, http.StatusInternalServerError, "Something went wrong", "Please try again later.")
}
