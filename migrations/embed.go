// Package migrations embeds the PostgreSQL schema migrations
package migrations

import "embed"

// FS holds the versioned *.up.sql and *.down.sql files
//
//go:embed *.sql
var FS embed.FS
