package web

import (
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger writes one structured line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch status := c.Writer.Status(); {
		case status >= 500:
			s.logger.Error(ctx, "request", args...)
		case status >= 400:
			s.logger.Warn(ctx, "request", args...)
		default:
			s.logger.Info(ctx, "request", args...)
		}
	}
}
