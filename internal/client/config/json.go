package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/reviewhub/internal/timex"
)

// jsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell absent keys apart, so the file only overrides what it names.
type jsonConfig struct {
	AccountURL     *string         `json:"account_url"`
	CategoryURL    *string         `json:"category_url"`
	StorePath      *string         `json:"store_path"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
}

// parseJSON overlays cfg with the values present in the file at path.
func parseJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if jc.AccountURL != nil {
		cfg.AccountURL = *jc.AccountURL
	}
	if jc.CategoryURL != nil {
		cfg.CategoryURL = *jc.CategoryURL
	}
	if jc.StorePath != nil {
		cfg.StorePath = *jc.StorePath
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}
