package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage drivers supported by the event store
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds the whole process configuration, read from the environment (and an optional .env file)
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":9000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"auctions"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"auctions.db"`

	// RedisAddr is optional, empty disables redis event fan-out
	RedisAddr    string `env:"REDIS_ADDR"`
	RedisChannel string `env:"REDIS_CHANNEL_PREFIX" envDefault:"auction"`

	StreamCacheSize   int           `env:"STREAM_CACHE_SIZE" envDefault:"1024"`
	CommandMaxRetries int           `env:"COMMAND_MAX_RETRIES" envDefault:"3"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	CheckBidders      bool          `env:"CHECK_BIDDERS" envDefault:"false"`
}

// Load reads the .env file if present and parses the environment into Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that env defaults cannot guard.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.CommandMaxRetries < 0 {
		return fmt.Errorf("config: COMMAND_MAX_RETRIES must not be negative, got %d", c.CommandMaxRetries)
	}
	if c.StreamCacheSize < 0 {
		return fmt.Errorf("config: STREAM_CACHE_SIZE must not be negative, got %d", c.StreamCacheSize)
	}
	return nil
}

// PostgresDSN builds the connection url used by pgx and golang-migrate
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}
