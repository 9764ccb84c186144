// Package postgresmigrations embeds goose migrations for the PostgreSQL provider.
package postgresmigrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
