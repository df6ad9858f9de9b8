package auth

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpSecretSize = 20
	totpPeriod     = 30

	// DefaultTOTPSkew is the number of periods accepted either side of now.
	DefaultTOTPSkew = 1
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateTOTPSecret returns a fresh 160-bit secret as unpadded base32
// (32 characters).
func GenerateTOTPSecret() (string, error) {
	b := make([]byte, totpSecretSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return b32.EncodeToString(b), nil
}

// ProvisioningURI builds the otpauth:// URI authenticator apps scan.
func ProvisioningURI(secret, account, issuer string) (string, error) {
	raw, err := b32.DecodeString(secret)
	if err != nil {
		return "", fmt.Errorf("decode totp secret: %w", err)
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      totpPeriod,
		Secret:      raw,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}
	return key.URL(), nil
}

func totpOpts(skew uint) totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// VerifyTOTP checks a 6-digit code against secret at time at.
func VerifyTOTP(secret, code string, at time.Time, skew uint) bool {
	ok, err := totp.ValidateCustom(code, secret, at, totpOpts(skew))
	return err == nil && ok
}

// TOTPCode returns the code for secret at time at. The admin CLI and tests
// use it; the server only verifies.
func TOTPCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, totpOpts(0))
}
