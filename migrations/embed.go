// Package migrations embeds the SQL schema for the postgres store backend.
package migrations

import "embed"

// FS holds the *.sql migration files at its root.
//
//go:embed *.sql
var FS embed.FS
