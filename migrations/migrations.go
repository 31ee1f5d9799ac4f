// Package migrations embeds the rule store schema for each supported
// database. Files are applied in filename order by internal/core/db.
package migrations

import "embed"

// SqliteMigrations holds the sqlite schema.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

// PostgresMigrations holds the PostgreSQL schema. Kept in step with
// SqliteMigrations file for file.
//
//go:embed postgres/*.sql
var PostgresMigrations embed.FS
