// Package migrations carries the SQL that provisions the auth schema for the
// sign-in kit: the wallet_identities mapping and the siwe_nonces trail.
package migrations

import (
	"embed"

	"github.com/uptrace/bun/migrate"
)

//go:embed *.sql
var sqlFS embed.FS

// FS exposes the raw SQL files for runners that bypass bun.
var FS = sqlFS

// Migrations registers every embedded file, ordered by filename timestamp.
var Migrations = migrate.NewMigrations()

func init() {
	_ = Migrations.Discover(sqlFS)
}
