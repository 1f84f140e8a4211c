package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv clears keys for the test and restores them afterwards
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetenv(t, "DB_DRIVER", "HTTP_ADDR", "COMMAND_MAX_RETRIES", "SHUTDOWN_TIMEOUT", "REDIS_ADDR")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, 3, cfg.CommandMaxRetries)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/test.db")
	t.Setenv("COMMAND_MAX_RETRIES", "7")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "/tmp/test.db", cfg.SQLitePath)
	assert.Equal(t, 7, cfg.CommandMaxRetries)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestLoad_InvalidNumber(t *testing.T) {
	t.Setenv("COMMAND_MAX_RETRIES", "many")

	_, err := Load()
	assert.ErrorContains(t, err, "parse env")
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{
		DBUser:     "bidder",
		DBPassword: "secret",
		DBHost:     "db",
		DBPort:     "5433",
		DBName:     "auctions",
		DBSSLMode:  "disable",
	}

	assert.Equal(t, "postgres://bidder:secret@db:5433/auctions?sslmode=disable", cfg.PostgresDSN())
}
