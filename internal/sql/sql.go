// Package sql embeds the schema migrations for the Postgres backend.
package sql

import "embed"

//go:embed migrations
var Migrations embed.FS
