// Package config loads service configuration from the environment and an
// optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort string `mapstructure:"APP_PORT"`

	// OIDC relying party settings. PublicBaseURL overrides the host of the
	// authorization endpoint when the issuer is reached on an internal
	// address.
	OIDCIssuer        string `mapstructure:"OIDC_ISSUER"`
	OIDCClientID      string `mapstructure:"OIDC_CLIENT_ID"`
	OIDCClientSecret  string `mapstructure:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL   string `mapstructure:"OIDC_REDIRECT_URL"`
	OIDCPublicBaseURL string `mapstructure:"OIDC_PUBLIC_BASE_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	DatabaseDSN string `mapstructure:"DATABASE_DSN"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	// Provisioning policy.
	AutoProvision bool `mapstructure:"SSO_AUTO_PROVISION"`
	BcryptCost    int  `mapstructure:"BCRYPT_COST"`

	DefaultLocale   string `mapstructure:"DEFAULT_LOCALE"`
	DefaultTimezone string `mapstructure:"DEFAULT_TIMEZONE"`
	DefaultCity     string `mapstructure:"DEFAULT_CITY"`
	DefaultCountry  string `mapstructure:"DEFAULT_COUNTRY"`

	// SessionTTL is the hard lifetime of a session; SessionIdleTTL expires
	// it earlier when unused.
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	SessionIdleTTL time.Duration `mapstructure:"SESSION_IDLE_TTL"`
	CookieSecure   bool          `mapstructure:"COOKIE_SECURE"`
}

// Load reads .env if present, then the environment. Env vars win.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine

	v.AutomaticEnv()

	// Every key needs a default so Unmarshal sees it through AutomaticEnv.
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("OIDC_ISSUER", "")
	v.SetDefault("OIDC_CLIENT_ID", "")
	v.SetDefault("OIDC_CLIENT_SECRET", "")
	v.SetDefault("OIDC_REDIRECT_URL", "")
	v.SetDefault("OIDC_PUBLIC_BASE_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("SSO_AUTO_PROVISION", true)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("DEFAULT_LOCALE", "en")
	v.SetDefault("DEFAULT_TIMEZONE", "99")
	v.SetDefault("DEFAULT_CITY", "Sydney")
	v.SetDefault("DEFAULT_COUNTRY", "AU")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_IDLE_TTL", "30m")
	v.SetDefault("COOKIE_SECURE", true)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.AppPort == "" {
		return errors.New("config: APP_PORT must be set")
	}
	if c.DatabaseDSN == "" {
		return errors.New("config: DATABASE_DSN must be set")
	}
	if c.OIDCIssuer == "" || c.OIDCClientID == "" || c.OIDCRedirectURL == "" {
		return errors.New("config: OIDC_ISSUER, OIDC_CLIENT_ID and OIDC_REDIRECT_URL must be set")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	if c.SessionIdleTTL <= 0 || c.SessionIdleTTL > c.SessionTTL {
		return errors.New("config: SESSION_IDLE_TTL must be positive and at most SESSION_TTL")
	}
	return nil
}
