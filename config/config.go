package config

import (
	"time"

	"github.com/pitabwire/frame/config"
)

type AuthConfig struct {
	config.ConfigurationDefault

	// Error handling configuration
	// When true, detailed error messages are shown to callers (useful for development)
	// When false, generic messages are shown and details are only logged
	ExposeErrors bool `envDefault:"false" env:"EXPOSE_ERRORS"`

	SessionDurationSeconds int64 `envDefault:"604800" env:"SESSION_DURATION_SECONDS"`

	PasswordResetCodeLength          int   `envDefault:"6"   env:"PASSWORD_RESET_CODE_LENGTH"`
	PasswordResetCodeDurationSeconds int64 `envDefault:"900" env:"PASSWORD_RESET_CODE_DURATION_SECONDS"`

	MfaChallengeDurationSeconds int64  `envDefault:"300" env:"MFA_CHALLENGE_DURATION_SECONDS"`
	MfaIssuer                   string `envDefault:"demirti" env:"MFA_ISSUER"`
	// Number of 30s time steps of clock drift tolerated either side when
	// validating a TOTP code.
	MfaCodeSkew uint `envDefault:"1" env:"MFA_CODE_SKEW"`

	LoginRateLimitMaxAttempts   int   `envDefault:"7"    env:"LOGIN_RATE_LIMIT_MAX_ATTEMPTS"`
	LoginRateLimitWindowSeconds int64 `envDefault:"3600" env:"LOGIN_RATE_LIMIT_WINDOW_SECONDS"`

	LoginBackoffBaseMilliseconds int64 `envDefault:"1000"   env:"LOGIN_BACKOFF_BASE_MS"`
	LoginBackoffMaxMilliseconds  int64 `envDefault:"900000" env:"LOGIN_BACKOFF_MAX_MS"`

	SecureCookieHashKey  string `envDefault:"d1f4f1a3b8d84f79e6d4b8b5c3f04725a8a7d6b4c2f9a987d5e4f3a2b1c086d1" env:"SECURE_COOKIE_HASH_KEY"`
	SecureCookieBlockKey string `envDefault:"a7e7b4f8d2e5a3c1f0b6d9d4f3a5c20798d1c1e7c4f6a3e4b0e5c2f4a7d6b301" env:"SECURE_COOKIE_BLOCK_KEY"`
}

func (c *AuthConfig) SessionDuration() time.Duration {
	return time.Duration(c.SessionDurationSeconds) * time.Second
}

func (c *AuthConfig) PasswordResetCodeDuration() time.Duration {
	return time.Duration(c.PasswordResetCodeDurationSeconds) * time.Second
}

func (c *AuthConfig) MfaChallengeDuration() time.Duration {
	return time.Duration(c.MfaChallengeDurationSeconds) * time.Second
}

func (c *AuthConfig) LoginRateLimitWindow() time.Duration {
	return time.Duration(c.LoginRateLimitWindowSeconds) * time.Second
}

func (c *AuthConfig) LoginBackoffBase() time.Duration {
	return time.Duration(c.LoginBackoffBaseMilliseconds) * time.Millisecond
}

func (c *AuthConfig) LoginBackoffMax() time.Duration {
	return time.Duration(c.LoginBackoffMaxMilliseconds) * time.Millisecond
}
