package migrations

import "embed"

// SQLite embeds the SQLite migration files.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
