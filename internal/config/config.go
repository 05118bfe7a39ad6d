package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration shared by every subcommand.
type Config struct {
	ListenAddr      string        `env:"STARWAKE_LISTEN_ADDR" envDefault:":8080"`
	RelayURL        string        `env:"STARWAKE_RELAY_URL" envDefault:"ws://localhost:8080/ws"`
	DBPath          string        `env:"STARWAKE_DB_PATH" envDefault:"starwake.db"`
	CatalogPath     string        `env:"STARWAKE_CATALOG"`
	ResyncInterval  time.Duration `env:"STARWAKE_RESYNC_INTERVAL" envDefault:"10s"`
	DesyncThreshold int           `env:"STARWAKE_DESYNC_THRESHOLD" envDefault:"2"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"text"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional dotenv file, then parses the environment. Variables
// already set in the environment win over the file.
func Load(dotenv string) (*Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the sync layer cannot work with.
func (c *Config) Validate() error {
	if c.ResyncInterval <= 0 {
		return fmt.Errorf("resync interval must be positive, got %s", c.ResyncInterval)
	}
	if c.DesyncThreshold < 1 {
		return fmt.Errorf("desync threshold must be at least 1, got %d", c.DesyncThreshold)
	}
	return nil
}
