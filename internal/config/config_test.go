package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Auth.RequireAdmin)
	assert.Equal(t, DriverJSON, cfg.Store.Driver)
	assert.Equal(t, "./data", cfg.Store.DataDir)
	assert.Equal(t, "client", cfg.Checkout.PricingMode)
	assert.Equal(t, "usd", cfg.Checkout.DefaultCurrency)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.True(t, cfg.HTTP.MetricsEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "8081")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("ADMIN_EMAILS", " boss@example.com, ,ops@example.com")
	t.Setenv("REQUIRE_ADMIN", "true")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("PRICING_MODE", "catalog")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"boss@example.com", "ops@example.com"}, cfg.Auth.AdminEmails)
	assert.True(t, cfg.Auth.RequireAdmin)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "catalog", cfg.Checkout.PricingMode)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STORE_DRIVER=memory\nDEFAULT_CURRENCY=EUR\n"), 0o600))
	t.Setenv("DEFAULT_CURRENCY", "gbp")
	// godotenv sets variables the process did not have; drop them afterwards.
	t.Cleanup(func() { os.Unsetenv("STORE_DRIVER") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "gbp", cfg.Checkout.DefaultCurrency, "real environment wins over .env")
}

func TestLoadParseError(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TOKEN_TTL", "forever")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "parse env:"))
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: "3000"},
			Auth:     AuthConfig{JWTSecret: "s", TokenTTL: time.Hour},
			Store:    StoreConfig{Driver: DriverJSON, DataDir: "./data"},
			Checkout: CheckoutConfig{PricingMode: "client"},
			LogLevel: "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: "PORT"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: "log level"},
		{name: "empty secret", mutate: func(c *Config) { c.Auth.JWTSecret = " " }, wantErr: "JWT_SECRET"},
		{name: "zero ttl", mutate: func(c *Config) { c.Auth.TokenTTL = 0 }, wantErr: "TOKEN_TTL"},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mongo" }, wantErr: "store driver"},
		{name: "postgres without url", mutate: func(c *Config) { c.Store.Driver = DriverPostgres }, wantErr: "DATABASE_URL"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Store.Driver = DriverSQLite }, wantErr: "SQLITE_PATH"},
		{name: "memory", mutate: func(c *Config) { c.Store.Driver = DriverMemory; c.Store.DataDir = "" }},
		{name: "bad pricing", mutate: func(c *Config) { c.Checkout.PricingMode = "server" }, wantErr: "pricing mode"},
		{name: "negative rate", mutate: func(c *Config) { c.HTTP.AuthRatePerMinute = -1 }, wantErr: "AUTH_RATE_PER_MINUTE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
