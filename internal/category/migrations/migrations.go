// Package migrations embeds the catalog schema for goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
