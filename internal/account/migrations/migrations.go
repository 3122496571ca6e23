// Package migrations embeds the account service schema for goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
