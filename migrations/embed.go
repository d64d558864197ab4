// Package migrations embeds the PostgreSQL schema files applied by
// database.ApplySQLMigrations in lexical order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
