package postgres

import (
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/*.sql
var _migrations embed.FS

// Migrate applies the embedded migrations that are not yet recorded in
// gorp_migrations and returns how many ran.
func Migrate(db *sqlx.DB) (int, error) {
	source := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: _migrations,
		Root:       "migrations",
	}
	n, err := migrate.Exec(db.DB, "postgres", source, migrate.Up)
	if err != nil {
		return n, fmt.Errorf("%w: can't apply migrations", err)
	}
	return n, nil
}
