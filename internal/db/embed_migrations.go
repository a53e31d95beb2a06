package db

import "embed"

// MigrationFS embeds the authorization schema migrations from
// internal/db/migrations. The migrate runner (cmd/migrate) applies them; the
// binary carries its own schema so deploys never depend on files on disk.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
