package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/server/auth"
	"github.com/dmitrijs2005/sitekeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

type loginInput struct {
	Identifier string `json:"username" form:"username"`
	Password   string `json:"password" form:"password"`
}

type emailInput struct {
	Email string `json:"email" form:"email"`
}

type codeInput struct {
	Code string `json:"code" form:"code"`
}

type resetInput struct {
	Token           string `json:"token" form:"token"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

func (s *Server) registerForm(c *gin.Context) {
	render(c, http.StatusOK, "register.html", nil)
}

func (s *Server) register(c *gin.Context) {
	var in services.RegisterInput
	if err := bindInput(c, &in); err != nil {
		rejectInput(c, "register.html", nil)
		return
	}

	_, err := s.deps.Auth.Register(c.Request.Context(), in)
	switch {
	case err == nil:
		redirectWithFlash(c, flashSuccess, "Registration successful! Check your email to verify your account.", "/login")
	case errors.Is(err, common.ErrDeliveryFailure):
		redirectWithFlash(c, flashWarning, "Your account was created, but the verification email could not be sent. Request a new one below.", "/resend-verification")
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrConflict):
		render(c, statusFor(err), "register.html", gin.H{"Error": publicMessage(err), "Form": in})
	default:
		s.internalError(c, err)
	}
}

func (s *Server) verifyEmail(c *gin.Context) {
	result, err := s.deps.Auth.VerifyEmail(c.Request.Context(), c.Query("token"))
	switch {
	case err == nil && result == services.VerifyResultAlreadyVerified:
		redirectWithFlash(c, flashInfo, "Your email is already verified.", "/login")
	case err == nil:
		redirectWithFlash(c, flashSuccess, "Your email has been verified. You can now log in.", "/login")
	case errors.Is(err, common.ErrTokenExpired):
		redirectWithFlash(c, flashDanger, "The verification link has expired. Request a new one.", "/resend-verification")
	case auth.IsTokenError(err), errors.Is(err, common.ErrorNotFound):
		redirectWithFlash(c, flashDanger, "The verification link is invalid.", "/resend-verification")
	default:
		s.internalError(c, err)
	}
}

func (s *Server) resendForm(c *gin.Context) {
	render(c, http.StatusOK, "resend_verification.html", nil)
}

func (s *Server) resend(c *gin.Context) {
	var in emailInput
	if err := bindInput(c, &in); err != nil {
		rejectInput(c, "resend_verification.html", nil)
		return
	}
	if err := s.deps.Auth.ResendVerification(c.Request.Context(), in.Email); err != nil {
		s.internalError(c, err)
		return
	}
	redirectWithFlash(c, flashInfo, "If that account exists and is not yet verified, a new verification email has been sent.", "/login")
}

func (s *Server) loginForm(c *gin.Context) {
	if identityFrom(c).Authenticated() {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	render(c, http.StatusOK, "login.html", nil)
}

func (s *Server) login(c *gin.Context) {
	var in loginInput
	if err := bindInput(c, &in); err != nil {
		rejectInput(c, "login.html", nil)
		return
	}

	res, err := s.deps.Auth.Login(c.Request.Context(), in.Identifier, in.Password)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorUnauthorized):
		render(c, http.StatusUnauthorized, "login.html", gin.H{"Error": "Invalid credentials", "Username": in.Identifier})
		return
	case errors.Is(err, common.ErrEmailNotVerified):
		redirectWithFlash(c, flashWarning, "Please verify your email before logging in.", "/resend-verification")
		return
	default:
		s.internalError(c, err)
		return
	}

	s.setSessionCookie(c, res.Token)
	if res.TwoFAPending() {
		c.Redirect(http.StatusSeeOther, "/login/2fa")
		return
	}
	redirectWithFlash(c, flashSuccess, "Logged in successfully.", "/dashboard")
}

func (s *Server) twoFactorForm(c *gin.Context) {
	render(c, http.StatusOK, "login_2fa.html", nil)
}

func (s *Server) twoFactor(c *gin.Context) {
	var in codeInput
	if err := bindInput(c, &in); err != nil {
		rejectInput(c, "login_2fa.html", nil)
		return
	}

	res, err := s.deps.Auth.CompleteTwoFactor(c.Request.Context(), sessionToken(c), in.Code)
	switch {
	case err == nil:
		s.setSessionCookie(c, res.Token)
		redirectWithFlash(c, flashSuccess, "Logged in successfully.", "/dashboard")
	case errors.Is(err, common.ErrInvalidTOTP):
		render(c, http.StatusUnauthorized, "login_2fa.html", gin.H{"Error": "Invalid authentication code"})
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrTwoFANotEnabled):
		s.clearSessionCookie(c)
		redirectWithFlash(c, flashDanger, "Please log in again.", "/login")
	default:
		s.internalError(c, err)
	}
}

// logout always clears the cookie, even if the session row is already gone.
func (s *Server) logout(c *gin.Context) {
	if err := s.deps.Auth.Logout(c.Request.Context(), sessionToken(c)); err != nil {
		s.logger.Warn(c.Request.Context(), "logout failed", "error", err)
	}
	s.clearSessionCookie(c)
	redirectWithFlash(c, flashInfo, "You have been logged out.", "/login")
}

func (s *Server) forgotForm(c *gin.Context) {
	render(c, http.StatusOK, "forgot_password.html", nil)
}

// forgot answers every request the same way so it cannot be used to probe
// for accounts.
func (s *Server) forgot(c *gin.Context) {
	var in emailInput
	if err := bindInput(c, &in); err != nil {
		rejectInput(c, "forgot_password.html", nil)
		return
	}
	if err := s.deps.Auth.ForgotPassword(c.Request.Context(), in.Email); err != nil {
		s.logger.Error(c.Request.Context(), "forgot password failed", "error", err)
	}
	redirectWithFlash(c, flashInfo, services.ForgotPasswordMessage, "/login")
}

func (s *Server) resetForm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		redirectWithFlash(c, flashDanger, "The reset link is invalid.", "/forgot-password")
		return
	}
	render(c, http.StatusOK, "reset_password.html", gin.H{"Token": token})
}

func (s *Server) reset(c *gin.Context) {
	var in resetInput
	if err := bindInput(c, &in); err != nil {
		rejectInput(c, "reset_password.html", gin.H{"Token": c.PostForm("token")})
		return
	}

	err := s.deps.Auth.ResetPassword(c.Request.Context(), in.Token, in.Password, in.ConfirmPassword)
	switch {
	case err == nil:
		s.clearSessionCookie(c)
		redirectWithFlash(c, flashSuccess, "Your password has been reset. Please log in.", "/login")
	case errors.Is(err, common.ErrValidation):
		render(c, http.StatusBadRequest, "reset_password.html", gin.H{"Token": in.Token, "Error": publicMessage(err)})
	case errors.Is(err, common.ErrTokenExpired):
		redirectWithFlash(c, flashDanger, "The reset link has expired. Request a new one.", "/forgot-password")
	case auth.IsTokenError(err), errors.Is(err, common.ErrorNotFound):
		redirectWithFlash(c, flashDanger, "The reset link is invalid.", "/forgot-password")
	case errors.Is(err, common.ErrEmailNotVerified):
		redirectWithFlash(c, flashWarning, "Please verify your email address first.", "/resend-verification")
	default:
		s.internalError(c, err)
	}
}
