package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// MinSessionSecretLen is the shortest accepted HMAC key for session tokens.
const MinSessionSecretLen = 32

type Config struct {
	Port          string        `env:"PORT,default=3333"`
	DBDriver      string        `env:"DB_DRIVER,default=mysql"`
	DSN           string        `env:"DSN,default=root:root@tcp(localhost:3306)/daily_diet"`
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL,default=168h"`
	CookieSecure  bool          `env:"COOKIE_SECURE,default=true"`
	BcryptCost    int           `env:"BCRYPT_COST,default=10"`
	AuthRateLimit int           `env:"AUTH_RATE_LIMIT,default=20"`
	// TrustedProxy makes the client IP come from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustedProxy bool `env:"TRUSTED_PROXY,default=false"`
	// AllowedOrigins lists the browser origins allowed to call the API with
	// the session cookie, separated by ";". Empty means same-origin only.
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
	LogLevel       string   `env:"LOG_LEVEL,default=info"`
}

// Load reads the optional env files and decodes the environment into a Config.
// A missing env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DSN == "" {
		return errors.New("DSN is required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if len(c.SessionSecret) < MinSessionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", MinSessionSecretLen)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.AuthRateLimit <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT must be positive, got %d", c.AuthRateLimit)
	}
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			return errors.New("CORS_ALLOWED_ORIGINS must list origins explicitly, \"*\" is not allowed with cookies")
		}
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// WarnInsecure logs settings that should not reach production.
func (c *Config) WarnInsecure(logger *slog.Logger) {
	if c.TrustedProxy {
		logger.Warn("trusting X-Forwarded-For and X-Real-IP for client addresses")
	}
	if !c.CookieSecure {
		logger.Warn("session cookie is sent without the Secure attribute")
	}
}
