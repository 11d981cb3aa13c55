package sqldb

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/db/migrations"
)

// NewMigrator builds a migrator over the embedded migrations for db's driver.
// The migrator takes ownership of db: closing it closes db.
func NewMigrator(db *sqlx.DB) (*migrate.Migrate, error) {
	var (
		driver database.Driver
		files  embed.FS
		dir    string
		err    error
	)
	if isPostgres(db) {
		files, dir = migrations.Postgres, "postgres"
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	} else {
		files, dir = migrations.SQLite, "sqlite"
		driver, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s migration driver: %w", dir, err)
	}

	src, err := iofs.New(files, dir)
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dir, driver)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration. It leaves db open.
func MigrateUp(db *sqlx.DB) error {
	m, err := NewMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
