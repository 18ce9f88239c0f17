// Package config builds the process configuration once at startup from the
// environment. The resulting Config is read-only after Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the library API.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	GinMode  string `env:"GIN_MODE" envDefault:"release"`

	// SecretKey signs access tokens, RefreshSecretKey signs refresh tokens.
	SecretKey        string `env:"SECRET_KEY,required,notEmpty"`
	RefreshSecretKey string `env:"REFRESH_SECRET_KEY,required,notEmpty"`
	Algorithm        string `env:"ALGORITHM" envDefault:"HS256"`

	AccessTokenExpireMinutes int `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	RefreshTokenExpireDays   int `env:"REFRESH_TOKEN_EXPIRE_DAYS" envDefault:"7"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite:///./library.db"`
	BcryptCost  int    `env:"BCRYPT_COST" envDefault:"10"`

	RedisAddr       string        `env:"REDIS_CONNSTRING"`
	SummaryCacheTTL time.Duration `env:"SUMMARY_CACHE_TTL" envDefault:"5m"`

	OTelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost"`
}

// Load reads a .env file outside production and parses the process
// environment. Missing secrets are an error here, not on first request.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromMap parses configuration from the given variables only.
func LoadFromMap(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	method, ok := jwt.GetSigningMethod(c.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok || method == nil {
		return fmt.Errorf("unsupported ALGORITHM %q: only HS256, HS384 and HS512 are allowed", c.Algorithm)
	}
	if c.SecretKey == c.RefreshSecretKey {
		return errors.New("SECRET_KEY and REFRESH_SECRET_KEY must differ")
	}
	if c.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", c.AccessTokenExpireMinutes)
	}
	if c.RefreshTokenExpireDays <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRE_DAYS must be positive, got %d", c.RefreshTokenExpireDays)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL must not be empty")
	}
	return nil
}

// AccessTTL is the lifetime of an access token.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// RefreshTTL is the lifetime of a refresh token.
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}

// CacheEnabled reports whether a redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// TelemetryEnabled reports whether an OTLP collector endpoint was configured.
func (c *Config) TelemetryEnabled() bool {
	return c.OTelEndpoint != ""
}
