// Package sqlitemigrations embeds goose migrations for the SQLite provider.
package sqlitemigrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
