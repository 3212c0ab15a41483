package migrations

import "embed"

// FS holds the SQLite schema migrations for the durable tier.
//
//go:embed *.sql
var FS embed.FS
