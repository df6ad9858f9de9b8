package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv loads the dotenv file (the -env flag, or ./.env when present)
// into the process environment and then overlays recognized variables.
// Variables already set in the process environment win over the file.
func parseEnv(config *Config) {
	envFile := flagx.EnvFileFlag()
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Errorf("load %s: %w", envFile, err))
	}
	applyEnv(config, os.LookupEnv)
}

// applyEnv overlays config from lookup. Malformed numbers, booleans or
// durations panic, the same way a malformed JSON file does.
func applyEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic(fmt.Errorf("%s: %w", key, err))
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(fmt.Errorf("%s: %w", key, err))
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				panic(fmt.Errorf("%s: %w", key, err))
			}
			*dst = b
		}
	}

	str("HTTP_ADDR", &config.HTTPAddr)
	str("BASE_URL", &config.BaseURL)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("LEGACY_DATA_FILE", &config.LegacyDataFile)
	str("SECRET_KEY", &config.SecretKey)
	dur("SESSION_LIFETIME", &config.SessionLifetime)
	dur("VERIFICATION_TOKEN_MAX_AGE", &config.VerificationTokenMaxAge)
	dur("RESET_TOKEN_MAX_AGE", &config.ResetTokenMaxAge)
	boolean("SECURE_COOKIES", &config.SecureCookies)
	str("TOTP_ISSUER", &config.TOTPIssuer)
	num("LOGIN_RATE_LIMIT", &config.LoginRateLimit)
	dur("LOGIN_RATE_WINDOW", &config.LoginRateWindow)
	str("REDIS_ADDR", &config.RedisAddr)
	str("REDIS_PASSWORD", &config.RedisPassword)
	num("REDIS_DB", &config.RedisDB)
	str("SMTP_HOST", &config.SMTPHost)
	num("SMTP_PORT", &config.SMTPPort)
	str("SMTP_USERNAME", &config.SMTPUsername)
	str("SMTP_PASSWORD", &config.SMTPPassword)
	str("MAIL_SENDER", &config.MailSender)
	str("CONTACT_RECIPIENT", &config.ContactRecipient)
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		config.CORSAllowedOrigins = splitList(v)
	}
	str("LOG_LEVEL", &config.LogLevel)
	str("LOG_FILE", &config.LogFile)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("S3_PUBLIC_BASE_URL", &config.S3PublicBaseURL)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
