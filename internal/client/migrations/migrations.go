// Package migrations embeds the local-cache schema applied by goose when the
// CLI opens its SQLite database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
