package database

import (
	"database/sql"
	"embed"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/iliyamo/cinelog/internal/logging"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationTable = "schema_migrations"

// seedMigration is the id of the starter catalog migration.  It is skipped
// when seeding is disabled.
const seedMigration = "0002_seed_movies.sql"

// Migrations returns the embedded migration source, optionally without the
// seed data.
func Migrations(seed bool) (migrate.MigrationSource, error) {
	src := &migrate.EmbedFileSystemMigrationSource{FileSystem: migrationFS, Root: "migrations"}
	if seed {
		return src, nil
	}
	all, err := src.FindMigrations()
	if err != nil {
		return nil, err
	}
	kept := make([]*migrate.Migration, 0, len(all))
	for _, m := range all {
		if m.Id != seedMigration {
			kept = append(kept, m)
		}
	}
	return &migrate.MemoryMigrationSource{Migrations: kept}, nil
}

// Migrate applies all pending up migrations and returns how many ran.
func Migrate(db *sql.DB, seed bool) (int, error) {
	src, err := Migrations(seed)
	if err != nil {
		return 0, fmt.Errorf("load migrations: %w", err)
	}
	ms := migrate.MigrationSet{TableName: migrationTable}
	n, err := ms.Exec(db, "mysql", src, migrate.Up)
	if err != nil {
		return n, fmt.Errorf("apply migrations: %w", err)
	}
	logging.Info().Int("applied", n).Bool("seed", seed).Msg("database migrations complete")
	return n, nil
}
