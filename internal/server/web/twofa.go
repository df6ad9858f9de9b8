package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const qrSize = 256

func (s *Server) twoFASetupForm(c *gin.Context) {
	id := identityFrom(c)
	if id.User.TwoFAEnabled {
		render(c, http.StatusOK, "twofa_setup.html", gin.H{"Enabled": true})
		return
	}
	setup, err := s.deps.Auth.BeginTwoFASetup(c.Request.Context(), id.User.ID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	render(c, http.StatusOK, "twofa_setup.html", gin.H{"Secret": setup.Secret, "URI": setup.URI})
}

func (s *Server) twoFASetup(c *gin.Context) {
	id := identityFrom(c)
	var in codeInput
	if err := bindInput(c, &in); err != nil {
		rejectInput(c, "message.html", gin.H{"Title": "Two-factor setup"})
		return
	}

	err := s.deps.Auth.ConfirmTwoFASetup(c.Request.Context(), id.User.ID, in.Code)
	switch {
	case err == nil:
		redirectWithFlash(c, flashSuccess, "Two-factor authentication enabled.", "/dashboard")
	case errors.Is(err, common.ErrInvalidTOTP):
		setup, setupErr := s.deps.Auth.BeginTwoFASetup(c.Request.Context(), id.User.ID)
		if setupErr != nil {
			s.internalError(c, setupErr)
			return
		}
		render(c, http.StatusBadRequest, "twofa_setup.html", gin.H{
			"Secret": setup.Secret,
			"URI":    setup.URI,
			"Error":  "Invalid authentication code",
		})
	case errors.Is(err, common.ErrTwoFANotEnabled):
		c.Redirect(http.StatusSeeOther, "/2fa/setup")
	default:
		s.internalError(c, err)
	}
}

func (s *Server) twoFAQR(c *gin.Context) {
	setup, err := s.deps.Auth.BeginTwoFASetup(c.Request.Context(), identityFrom(c).User.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	png, err := auth.QRCodePNG(setup.URI, qrSize)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) twoFADisable(c *gin.Context) {
	if err := s.deps.Auth.DisableTwoFA(c.Request.Context(), identityFrom(c).User.ID); err != nil {
		s.internalError(c, err)
		return
	}
	redirectWithFlash(c, flashInfo, "Two-factor authentication disabled.", "/dashboard")
}
