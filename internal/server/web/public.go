package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

func (s *Server) healthz(c *gin.Context) {
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()
		if err := s.deps.DB.PingContext(ctx); err != nil {
			s.logger.Error(ctx, "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// content serves both collections for the public site.
func (s *Server) content(c *gin.Context) {
	all, err := s.deps.Content.All(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

func (s *Server) contact(c *gin.Context) {
	var in services.ContactInput
	if err := bindInput(c, &in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": services.MissingFieldsMessage})
		return
	}

	err := s.deps.Contact.Send(c.Request.Context(), in)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, common.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to send message"})
	}
}

type presignRequest struct {
	Filename string `json:"filename" form:"filename"`
}

func (s *Server) presign(c *gin.Context) {
	var in presignRequest
	if err := bindInput(c, &in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	upload, err := s.deps.Media.PresignUpload(c.Request.Context(), in.Filename)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}
