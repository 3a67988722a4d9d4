package migrations

import "embed"

// FS contains embedded SQLite migrations for durable client scopes.
//
//go:embed *.sql
var FS embed.FS
