// Package migrations embeds the schema for every supported database engine.
// Each engine has its own directory of golang-migrate files; both carry the
// same tables, triggers and views.
package migrations

import "embed"

// Postgres holds the PostgreSQL migrations under postgres/.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite holds the SQLite migrations under sqlite/.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
