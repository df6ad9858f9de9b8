package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/flagx"
	"github.com/dmitrijs2005/sitekeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Pointer fields
// distinguish "absent" from zero values so the file can override selectively.
type JsonConfig struct {
	HTTPAddr                *string         `json:"http_addr"`
	BaseURL                 *string         `json:"base_url"`
	DatabaseDSN             *string         `json:"database_dsn"`
	LegacyDataFile          *string         `json:"legacy_data_file"`
	SecretKey               *string         `json:"secret_key"`
	SessionLifetime         *timex.Duration `json:"session_lifetime"`
	VerificationTokenMaxAge *timex.Duration `json:"verification_token_max_age"`
	ResetTokenMaxAge        *timex.Duration `json:"reset_token_max_age"`
	SecureCookies           *bool           `json:"secure_cookies"`
	TOTPIssuer              *string         `json:"totp_issuer"`
	LoginRateLimit          *int            `json:"login_rate_limit"`
	LoginRateWindow         *timex.Duration `json:"login_rate_window"`
	RedisAddr               *string         `json:"redis_addr"`
	RedisPassword           *string         `json:"redis_password"`
	RedisDB                 *int            `json:"redis_db"`
	SMTPHost                *string         `json:"smtp_host"`
	SMTPPort                *int            `json:"smtp_port"`
	SMTPUsername            *string         `json:"smtp_username"`
	SMTPPassword            *string         `json:"smtp_password"`
	MailSender              *string         `json:"mail_sender"`
	ContactRecipient        *string         `json:"contact_recipient"`
	CORSAllowedOrigins      []string        `json:"cors_allowed_origins"`
	LogLevel                *string         `json:"log_level"`
	LogFile                 *string         `json:"log_file"`
	S3RootUser              *string         `json:"s3_root_user"`
	S3RootPassword          *string         `json:"s3_root_password"`
	S3Bucket                *string         `json:"s3_bucket"`
	S3Region                *string         `json:"s3_region"`
	S3BaseEndpoint          *string         `json:"s3_base_endpoint"`
	S3PublicBaseURL         *string         `json:"s3_public_base_url"`
}

// parseJson overlays values from the file named by -c/-config, if any.
// An unreadable file or invalid JSON panics: a broken config must stop startup.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.BaseURL, c.BaseURL)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LegacyDataFile, c.LegacyDataFile)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.SessionLifetime, c.SessionLifetime)
	setDuration(&config.VerificationTokenMaxAge, c.VerificationTokenMaxAge)
	setDuration(&config.ResetTokenMaxAge, c.ResetTokenMaxAge)
	if c.SecureCookies != nil {
		config.SecureCookies = *c.SecureCookies
	}
	setString(&config.TOTPIssuer, c.TOTPIssuer)
	setInt(&config.LoginRateLimit, c.LoginRateLimit)
	setDuration(&config.LoginRateWindow, c.LoginRateWindow)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setInt(&config.RedisDB, c.RedisDB)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailSender, c.MailSender)
	setString(&config.ContactRecipient, c.ContactRecipient)
	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFile, c.LogFile)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
