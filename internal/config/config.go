package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultJWTSecret is used when JWT_SECRET is unset. It is only fit for local
// development; the server logs a warning when it is in effect.
const DefaultJWTSecret = "storefront-dev-secret"

// Store drivers accepted by STORE_DRIVER.
const (
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Store    StoreConfig
	Checkout CheckoutConfig
	HTTP     HTTPConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type ServerConfig struct {
	Port            string `env:"PORT" envDefault:"3000"`
	Host            string `env:"HOST" envDefault:"0.0.0.0"`
	ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"15"`
	WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
	ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30"`
}

type AuthConfig struct {
	JWTSecret    string        `env:"JWT_SECRET" envDefault:"storefront-dev-secret"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	BcryptCost   int           `env:"BCRYPT_COST" envDefault:"10"`
	AdminEmails  []string      `env:"ADMIN_EMAILS" envSeparator:","`
	RequireAdmin bool          `env:"REQUIRE_ADMIN" envDefault:"false"`
}

type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER" envDefault:"json"`
	DataDir     string `env:"DATA_DIR" envDefault:"./data"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"./data/storefront.db"`
	DatabaseURL string `env:"DATABASE_URL"`
}

type CheckoutConfig struct {
	PricingMode     string `env:"PRICING_MODE" envDefault:"client"`
	DefaultCurrency string `env:"DEFAULT_CURRENCY" envDefault:"usd"`
}

type HTTPConfig struct {
	AuthRatePerMinute int      `env:"AUTH_RATE_PER_MINUTE" envDefault:"20"`
	AuthRateBurst     int      `env:"AUTH_RATE_BURST" envDefault:"10"`
	CORSOrigins       []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	MetricsEnabled    bool     `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment
// variables take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Checkout.PricingMode = strings.ToLower(strings.TrimSpace(c.Checkout.PricingMode))
	c.Checkout.DefaultCurrency = strings.ToLower(strings.TrimSpace(c.Checkout.DefaultCurrency))
	c.Auth.AdminEmails = trimAll(c.Auth.AdminEmails)
	c.HTTP.CORSOrigins = trimAll(c.HTTP.CORSOrigins)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}

	switch c.Store.Driver {
	case DriverJSON:
		if c.Store.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the json store")
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid store driver: %s (must be json, sqlite, postgres, or memory)", c.Store.Driver)
	}

	if c.Checkout.PricingMode != "client" && c.Checkout.PricingMode != "catalog" {
		return fmt.Errorf("invalid pricing mode: %s (must be client or catalog)", c.Checkout.PricingMode)
	}

	if c.HTTP.AuthRatePerMinute < 0 {
		return fmt.Errorf("AUTH_RATE_PER_MINUTE must not be negative")
	}

	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
