package auth

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// devFallbackSigningKey is only ever used in development mode, and loudly.
const devFallbackSigningKey = "dev-only-insecure-signing-key"

// Config is the environment-driven service configuration. It is loaded once
// at startup and treated as immutable afterwards.
type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file:promptcraft.db?cache=shared&mode=rwc"`

	SigningKey    string `env:"JWT_SECRET_KEY"`
	SigningMethod string `env:"JWT_ALGORITHM" envDefault:"HS256"`
	Issuer        string `env:"JWT_ISSUER" envDefault:"promptcraft"`

	AccessTokenTTL       time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshTokenTTL      time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	VerificationTokenTTL time.Duration `env:"EMAIL_VERIFICATION_TOKEN_TTL" envDefault:"24h"`
	ResetTokenTTL        time.Duration `env:"PASSWORD_RESET_TOKEN_TTL" envDefault:"1h"`

	VerificationBaseURL  string `env:"VERIFICATION_BASE_URL" envDefault:"https://promptcraft.aiw3.ai/verify-email"`
	PasswordResetBaseURL string `env:"PASSWORD_RESET_BASE_URL" envDefault:"https://promptcraft.aiw3.ai/reset-password"`
}

// LoadConfig reads configuration from the environment
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse environment configuration")
	}
	return cfg, nil
}

// Finalize enforces the signing secret policy: outside development a missing
// secret is a startup failure, never a silently insecure default. In
// development the fallback key is allowed but logged as a security warning.
func (c *Config) Finalize(logger Logger) error {
	if logger == nil {
		logger = defLogger{}
	}

	if c.SigningMethod != "HS256" {
		return errors.New("unsupported signing method", errors.CategoryBadInput).
			WithMetadata(map[string]any{"method": c.SigningMethod})
	}

	if c.SigningKey == "" {
		if !c.IsDevelopment() {
			return errors.New("JWT_SECRET_KEY must be configured outside development", errors.CategoryBadInput).
				WithTextCode("MISSING_SIGNING_KEY")
		}
		c.SigningKey = devFallbackSigningKey
	}

	if c.SigningKey == devFallbackSigningKey {
		logger.Warn("using the development fallback signing key. This is INSECURE. Set JWT_SECRET_KEY.")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == "test"
}

func (c *Config) GetSigningKey() string    { return c.SigningKey }
func (c *Config) GetSigningMethod() string { return c.SigningMethod }
func (c *Config) GetIssuer() string        { return c.Issuer }

func (c *Config) GetAccessTokenTTL() time.Duration       { return c.AccessTokenTTL }
func (c *Config) GetRefreshTokenTTL() time.Duration      { return c.RefreshTokenTTL }
func (c *Config) GetVerificationTokenTTL() time.Duration { return c.VerificationTokenTTL }
func (c *Config) GetResetTokenTTL() time.Duration        { return c.ResetTokenTTL }

var _ TokenConfig = (*Config)(nil)
