// Package config loads runtime settings from SERVICOS_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting of the board server.
type Config struct {
	Addr      string `env:"SERVICOS_ADDR" envDefault:":8080"`
	DBPath    string `env:"SERVICOS_DB_PATH" envDefault:":memory:"`
	StaticDir string `env:"SERVICOS_STATIC_DIR" envDefault:"web/dist"`
	LogLevel  string `env:"SERVICOS_LOG_LEVEL" envDefault:"info"`

	LoginUser     string `env:"SERVICOS_LOGIN_USER" envDefault:"admin"`
	LoginPassword string `env:"SERVICOS_LOGIN_PASSWORD" envDefault:"admin@123"`

	EditorMaxSessions int           `env:"SERVICOS_EDITOR_MAX_SESSIONS" envDefault:"100"`
	EditorTTL         time.Duration `env:"SERVICOS_EDITOR_TTL" envDefault:"1h"`
	MaxUploadBytes    int64         `env:"SERVICOS_MAX_UPLOAD_BYTES" envDefault:"10485760"`
	SeedDemo          bool          `env:"SERVICOS_SEED_DEMO" envDefault:"true"`
}

// Load reads the configuration from the environment.
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

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.EditorMaxSessions <= 0 {
		return fmt.Errorf("editor max sessions must be positive, got %d", c.EditorMaxSessions)
	}
	if c.EditorTTL <= 0 {
		return fmt.Errorf("editor ttl must be positive, got %s", c.EditorTTL)
	}
	return nil
}
