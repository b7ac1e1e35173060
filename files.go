package uptask

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// Migrate brings the schema up to date using the embedded migrations
func Migrate(db *sql.DB, dialect string) error {
	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "data/sql/migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
