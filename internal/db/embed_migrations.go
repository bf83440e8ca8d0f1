package db

import "embed"

// MigrationFS — SQL-миграции схемы users.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
