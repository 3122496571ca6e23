package config

import (
	"flag"
	"fmt"

	"github.com/dmitrijs2005/reviewhub/internal/flagx"
)

// parseFlags applies the command-line overrides:
//
//	-a   HTTP listen address
//	-g   internal gRPC listen address
//	-d   PostgreSQL DSN
//	-s   JWT signing key
//	-t   access token lifetime (e.g. 2m)
//	-r   refresh token lifetime (e.g. 720h)
//	-n   notifier: log, smtp or amqp
//	-l   log level
func parseFlags(c *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-r", "-n", "-l"})

	fs := flag.NewFlagSet("account", flag.ContinueOnError)

	fs.StringVar(&c.HTTPAddr, "a", c.HTTPAddr, "HTTP listen address")
	fs.StringVar(&c.GRPCAddr, "g", c.GRPCAddr, "internal gRPC listen address")
	fs.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "database DSN")
	fs.StringVar(&c.SecretKey, "s", c.SecretKey, "JWT signing key")
	fs.DurationVar(&c.AccessTokenTTL, "t", c.AccessTokenTTL, "access token lifetime")
	fs.DurationVar(&c.RefreshTokenTTL, "r", c.RefreshTokenTTL, "refresh token lifetime")
	fs.StringVar(&c.Notifier, "n", c.Notifier, "notifier: log, smtp or amqp")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
