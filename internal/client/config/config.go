package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/reviewhub/internal/flagx"
	"github.com/joho/godotenv"
)

// Config holds runtime settings for the reviewctl client.
//
// Fields:
//   - AccountURL: base URL of the account service HTTP API.
//   - CategoryURL: base URL of the category service HTTP API.
//   - StorePath: SQLite file keeping the session between runs.
//   - RequestTimeout: upper bound for a single HTTP request.
type Config struct {
	AccountURL     string        `env:"REVIEWHUB_ACCOUNT_URL"`
	CategoryURL    string        `env:"REVIEWHUB_CATEGORY_URL"`
	StorePath      string        `env:"REVIEWHUB_STORE"`
	RequestTimeout time.Duration `env:"REVIEWHUB_TIMEOUT"`
}

// LoadDefaults populates c with values suitable for a local setup.
func (c *Config) LoadDefaults() {
	c.AccountURL = "http://localhost:8080"
	c.CategoryURL = "http://localhost:8081"
	c.StorePath = "reviewhub.db"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays the JSON
// file, the .env file, the environment and the flags in args. Later sources
// take precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	src := flagx.ConfigSources(args)
	if src.JSONFile != "" {
		if err := parseJSON(cfg, src.JSONFile); err != nil {
			return nil, err
		}
	}
	if src.EnvFile != "" {
		if err := godotenv.Load(src.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
