package common

// SessionCookieName is the cookie that carries the opaque session token.
const SessionCookieName = "sitekeeper_session"

// FlashCookieName carries one pending flash message between redirects.
const FlashCookieName = "sitekeeper_flash"

// Token purposes. A token minted for one purpose never validates for another.
const (
	PurposeEmailVerification = "email-verification"
	PurposePasswordReset     = "password-reset"
)
