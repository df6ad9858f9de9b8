// Package auth holds the credential primitives of the server: password
// hashing, signed purpose tokens, TOTP and QR rendering. All cryptography
// comes from libraries.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a purpose token. Subject carries the payload
// (an email address) and IssuedAt is used for the age check.
type Claims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
}

// TokenSigner issues and consumes HS256 purpose tokens. Tokens carry no
// exp claim; the maximum age is decided by the consumer.
type TokenSigner struct {
	secret []byte
	now    func() time.Time
}

func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy of the signer that reads time from now.
func (s *TokenSigner) WithClock(now func() time.Time) *TokenSigner {
	return &TokenSigner{secret: s.secret, now: now}
}

func (s *TokenSigner) Issue(payload, purpose string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  payload,
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
		Purpose: purpose,
	})
	return token.SignedString(s.secret)
}

// Consume validates token for purpose and returns its payload.
// It returns common.ErrTokenExpired when the token is older than maxAge and
// common.ErrInvalidToken for anything else that does not check out.
func (s *TokenSigner) Consume(tokenString, purpose string, maxAge time.Duration) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", common.ErrInvalidToken
	}

	if claims.Purpose != purpose || claims.Subject == "" || claims.IssuedAt == nil {
		return "", common.ErrInvalidToken
	}

	if s.now().Sub(claims.IssuedAt.Time) > maxAge {
		return "", common.ErrTokenExpired
	}

	return claims.Subject, nil
}

// IsTokenError reports whether err is one of the errors Consume returns.
func IsTokenError(err error) bool {
	return errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired)
}
