package config

import (
	"flag"
	"fmt"

	"github.com/dmitrijs2005/reviewhub/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Only the flags handled here are kept (see flagx.FilterArgs), so the
// config-source flags do not interfere.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-k", "-f", "-t"})

	fs := flag.NewFlagSet("reviewctl", flag.ContinueOnError)

	fs.StringVar(&cfg.AccountURL, "a", cfg.AccountURL, "account service URL")
	fs.StringVar(&cfg.CategoryURL, "k", cfg.CategoryURL, "category service URL")
	fs.StringVar(&cfg.StorePath, "f", cfg.StorePath, "session store file")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
