// Package config holds the environment driven settings of the server and the
// historian.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is parsed from the process environment. A .env file is loaded by the
// binaries before Load runs.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// StoreBackend selects "postgres" or "memory".
	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres"`

	DatabaseURL      string `env:"DATABASE_URL"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PGHost           string `env:"PG_HOST" envDefault:"localhost"`
	PGPort           string `env:"PG_PORT" envDefault:"5432"`
	PGDatabase       string `env:"PG_DATABASE" envDefault:"chesslive"`

	// RedisAddr is optional for the server; moves are not logged without it.
	RedisAddr string `env:"REDIS_ADDR"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	HistorianQueue         string        `env:"HISTORIAN_QUEUE_NAME" envDefault:"chesslive_moves"`
	HistorianBatchSize     int           `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	HistorianFlushInterval time.Duration `env:"HISTORIAN_FLUSH_INTERVAL" envDefault:"500ms"`

	TokenExpireTime   time.Duration `env:"TOKEN_EXPIRE_TIME" envDefault:"24h"`
	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH"`

	WSWriteTimeout time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("STORE_BACKEND must be postgres or memory, got %q", c.StoreBackend)
	}
	if (c.JWTPrivateKeyPath == "") != (c.JWTPublicKeyPath == "") {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH must be set together")
	}
	if c.HistorianBatchSize <= 0 {
		return fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive, got %d", c.HistorianBatchSize)
	}
	return nil
}

// PostgresURL returns DATABASE_URL, or a URL assembled from the PG_* parts.
func (c Config) PostgresURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   c.PGHost + ":" + c.PGPort,
		Path:   c.PGDatabase,
	}
	return u.String()
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}
