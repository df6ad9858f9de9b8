package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func isJSONBody(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), binding.MIMEJSON)
}

// bindInput decodes the body into v: JSON when the request says so, form
// fields otherwise.
func bindInput(c *gin.Context, v any) error {
	if isJSONBody(c) {
		return c.ShouldBindJSON(v)
	}
	return c.ShouldBindWith(v, binding.Form)
}

// wantsJSON reports whether the caller is an API client rather than a browser.
func wantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	if isJSONBody(c) {
		return true
	}
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, binding.MIMEJSON) && !strings.Contains(accept, binding.MIMEHTML)
}

// rejectInput answers a body that could not be decoded: JSON for API
// callers, page re-rendered with an error otherwise.
func rejectInput(c *gin.Context, page string, data gin.H) {
	if wantsJSON(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if data == nil {
		data = gin.H{}
	}
	data["Error"] = "The form could not be read. Please try again."
	render(c, http.StatusBadRequest, page, data)
}
