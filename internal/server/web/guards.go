package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Decision is the outcome of a Guard. A denial carries the status and
// message for API clients and the page browsers are sent to.
type Decision struct {
	Allowed  bool
	Status   int
	Reason   string
	Redirect string
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(status int, reason, redirect string) Decision {
	return Decision{Status: status, Reason: reason, Redirect: redirect}
}

// Guard inspects a request before its handler runs.
type Guard func(c *gin.Context) Decision

// Require runs guards in order and stops at the first denial.
func Require(guards ...Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, g := range guards {
			if d := g(c); !d.Allowed {
				deny(c, d)
				return
			}
		}
		c.Next()
	}
}

func deny(c *gin.Context, d Decision) {
	switch {
	case wantsJSON(c):
		c.AbortWithStatusJSON(d.Status, gin.H{"error": d.Reason})
	case d.Redirect != "":
		setFlash(c, flashDanger, d.Reason)
		c.Redirect(http.StatusSeeOther, d.Redirect)
		c.Abort()
	default:
		renderMessage(c, d.Status, "Request rejected", d.Reason)
		c.Abort()
	}
}

func LoginRequired(c *gin.Context) Decision {
	if identityFrom(c).Authenticated() {
		return Allow()
	}
	return Deny(http.StatusUnauthorized, "Please log in to access this page.", "/login")
}

func EmailVerifiedRequired(c *gin.Context) Decision {
	id := identityFrom(c)
	if id != nil && id.User != nil && id.User.EmailVerified {
		return Allow()
	}
	return Deny(http.StatusForbidden, "Please verify your email address first.", "/resend-verification")
}

func TwoFAPendingRequired(c *gin.Context) Decision {
	if identityFrom(c).TwoFAPending() {
		return Allow()
	}
	return Deny(http.StatusUnauthorized, "Please log in first.", "/login")
}

// RateLimited counts the request against "<scope>:<client ip>". A limiter
// error is logged and the request is let through.
func (s *Server) RateLimited(scope string) Guard {
	return func(c *gin.Context) Decision {
		if s.deps.Limiter == nil {
			return Allow()
		}
		ok, err := s.deps.Limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			s.logger.Error(c.Request.Context(), "rate limiter failure", "error", err)
			return Allow()
		}
		if !ok {
			s.logger.Warn(c.Request.Context(), "rate limit exceeded", "scope", scope, "client_ip", c.ClientIP())
			return Deny(http.StatusTooManyRequests, "Too many attempts. Please try again later.", "")
		}
		return Allow()
	}
}
