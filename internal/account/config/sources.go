package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/reviewhub/internal/flagx"
	"github.com/dmitrijs2005/reviewhub/internal/timex"
	"github.com/joho/godotenv"
)

// jsonDurations carries the duration fields of the JSON file, which may be
// written as "10m" or as integer nanoseconds.
type jsonDurations struct {
	AccessTokenTTL  *timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL *timex.Duration `json:"refresh_token_ttl"`
	EmailTokenTTL   *timex.Duration `json:"email_token_ttl"`
	SweepInterval   *timex.Duration `json:"sweep_interval"`
	AvatarUploadTTL *timex.Duration `json:"avatar_upload_ttl"`
}

func (d jsonDurations) apply(c *Config) {
	set := func(dst *time.Duration, v *timex.Duration) {
		if v != nil {
			*dst = v.Duration
		}
	}
	set(&c.AccessTokenTTL, d.AccessTokenTTL)
	set(&c.RefreshTokenTTL, d.RefreshTokenTTL)
	set(&c.EmailTokenTTL, d.EmailTokenTTL)
	set(&c.SweepInterval, d.SweepInterval)
	set(&c.AvatarUploadTTL, d.AvatarUploadTTL)
}

func parseSources(c *Config, args []string) error {
	src := flagx.ConfigSources(args)

	if src.JSONFile != "" {
		if err := parseJSON(c, src.JSONFile); err != nil {
			return err
		}
	}

	if src.EnvFile != "" {
		if err := godotenv.Load(src.EnvFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// parseJSON overlays the fields present in the file; absent fields keep
// their current values.
func parseJSON(c *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	var d jsonDurations
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	d.apply(c)
	return nil
}
