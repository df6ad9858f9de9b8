package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidTOTP):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrEmailNotVerified):
		return http.StatusForbidden
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrInvalidToken):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns text that is safe to show to the caller. Internal
// failures are reduced to a generic message.
func publicMessage(err error) string {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case statusFor(err) == http.StatusInternalServerError:
		return "internal error"
	case errors.Is(err, common.ErrorNotFound):
		return "not found"
	default:
		return err.Error()
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": publicMessage(err)})
}
