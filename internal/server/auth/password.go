package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// prehash folds plaintext of any length into 64 hex bytes, below bcrypt's
// 72-byte input limit.
func prehash(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(hex.EncodeToString(sum[:]))
}

// HashPassword returns a salted bcrypt hash of plaintext. Plaintext length is
// not limited.
func HashPassword(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword(prehash(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyPassword reports whether plaintext matches hash. A malformed hash
// never matches.
func VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(plaintext)) == nil
}
